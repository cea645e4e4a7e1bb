package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/onepost/notifier/internal/auth"
	"github.com/onepost/notifier/internal/dispatcher"
	"github.com/onepost/notifier/internal/ierr"
	"github.com/onepost/notifier/internal/notification"
	"github.com/onepost/notifier/internal/persistence"
	"go.uber.org/zap"
)

var ErrSelfNotification = errors.New("actor is the recipient")

type CreateNotificationRequest struct {
	RecipientId string            `json:"recipientId" validate:"required,max=256"`
	ActorId     string            `json:"actorId" validate:"required,max=256"`
	ActorName   string            `json:"actorName" validate:"max=256"`
	Type        notification.Type `json:"type" validate:"required,oneof=like comment"`
}

type CreateNotificationResponse struct {
	Notification notification.Notification `json:"notification"`
	Delivery     dispatcher.Outcome        `json:"delivery"`
}

type NotifyHandlerInterface interface {
	Handle(ctx context.Context, req CreateNotificationRequest) (CreateNotificationResponse, error)
}

// NotifyHandler is the producer side: it stores the notification, then attempts a live push.
// The stored row stays available to the pull path whatever the delivery outcome.
type NotifyHandler struct {
	logger     *zap.Logger
	validate   *validator.Validate
	engine     persistence.Engine
	dispatcher dispatcher.DispatcherInterface
}

func NewNotifyHandler(
	logger *zap.Logger,
	validate *validator.Validate,
	engine persistence.Engine,
	dispatcher dispatcher.DispatcherInterface,
) *NotifyHandler {
	return &NotifyHandler{
		logger,
		validate,
		engine,
		dispatcher,
	}
}

func (h *NotifyHandler) Handle(ctx context.Context, req CreateNotificationRequest) (CreateNotificationResponse, error) {
	authentication, ok := auth.AuthenticationFromContext(ctx)
	if !ok {
		return CreateNotificationResponse{}, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("authentication required"))
	}

	if !authentication.IsService {
		return CreateNotificationResponse{},
			ierr.New(ierr.ErrorCodePermissionDenied, errors.New("only services can create notifications"))
	}

	err := h.validate.Struct(req)
	if err != nil {
		return CreateNotificationResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, err)
	}

	if req.ActorId == req.RecipientId {
		return CreateNotificationResponse{}, ErrSelfNotification
	}

	stored, err := h.engine.Save(ctx, persistence.SaveRequest{
		UserId:  req.RecipientId,
		Type:    req.Type,
		Message: notification.Message(req.Type, req.ActorName),
	})
	if err != nil {
		return CreateNotificationResponse{}, err
	}

	outcome, err := h.dispatcher.Deliver(stored.UserId, stored)
	if err != nil {
		return CreateNotificationResponse{}, err
	}

	h.logger.Info("notification created",
		zap.String("notificationId", stored.Id),
		zap.String("userId", stored.UserId),
		zap.String("type", string(stored.Type)),
		zap.String("delivery", string(outcome.Status)),
		zap.String("reason", string(outcome.Reason)))

	return CreateNotificationResponse{
		Notification: stored,
		Delivery:     outcome,
	}, nil
}
