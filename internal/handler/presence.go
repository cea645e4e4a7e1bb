package handler

import (
	"context"
	"errors"

	"github.com/onepost/notifier/internal/ierr"
	"github.com/onepost/notifier/internal/presence"
)

type PresenceResponse struct {
	UserId string `json:"userId"`
	Online bool   `json:"online"`
}

type PresenceHandlerInterface interface {
	Handle(ctx context.Context, userId string) (PresenceResponse, error)
}

type PresenceHandler struct {
	registry presence.Registry
}

func NewPresenceHandler(registry presence.Registry) *PresenceHandler {
	return &PresenceHandler{
		registry,
	}
}

func (h *PresenceHandler) Handle(ctx context.Context, userId string) (PresenceResponse, error) {
	if userId == "" {
		return PresenceResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("userId is required"))
	}

	_, online := h.registry.Get(userId)

	return PresenceResponse{
		UserId: userId,
		Online: online,
	}, nil
}
