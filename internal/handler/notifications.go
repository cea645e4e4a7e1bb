package handler

import (
	"context"
	"errors"

	"github.com/onepost/notifier/internal/auth"
	"github.com/onepost/notifier/internal/ierr"
	"github.com/onepost/notifier/internal/notification"
	"github.com/onepost/notifier/internal/persistence"
)

type ListNotificationsResponse struct {
	Notifications []notification.Notification `json:"notifications"`
}

type MarkReadResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated"`
}

type NotificationsHandlerInterface interface {
	List(ctx context.Context) (ListNotificationsResponse, error)
	MarkAllRead(ctx context.Context) (MarkReadResponse, error)
}

// NotificationsHandler serves the pull path for users who were offline when a push was
// attempted.
type NotificationsHandler struct {
	engine persistence.Engine
}

func NewNotificationsHandler(engine persistence.Engine) *NotificationsHandler {
	return &NotificationsHandler{
		engine,
	}
}

// List returns the newest DefaultListLimit notifications wrapped in {"notifications": [...]}.
func (h *NotificationsHandler) List(ctx context.Context) (ListNotificationsResponse, error) {
	userId, err := userIdFromContext(ctx)
	if err != nil {
		return ListNotificationsResponse{}, err
	}

	notifications, err := h.engine.List(ctx, userId, persistence.DefaultListLimit)
	if err != nil {
		return ListNotificationsResponse{}, err
	}

	if notifications == nil {
		notifications = []notification.Notification{}
	}

	return ListNotificationsResponse{
		Notifications: notifications,
	}, nil
}

func (h *NotificationsHandler) MarkAllRead(ctx context.Context) (MarkReadResponse, error) {
	userId, err := userIdFromContext(ctx)
	if err != nil {
		return MarkReadResponse{}, err
	}

	updated, err := h.engine.MarkAllRead(ctx, userId)
	if err != nil {
		return MarkReadResponse{}, err
	}

	return MarkReadResponse{
		Success: true,
		Updated: updated,
	}, nil
}

func userIdFromContext(ctx context.Context) (string, error) {
	authentication, ok := auth.AuthenticationFromContext(ctx)
	if !ok {
		return "", ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("authentication required"))
	}

	if authentication.IsService {
		return "", ierr.New(ierr.ErrorCodePermissionDenied, errors.New("a user token is required"))
	}

	return authentication.Subject, nil
}
