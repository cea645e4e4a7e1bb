package handler

import (
	"context"
	"errors"

	"github.com/onepost/notifier/internal/gateway"
	"github.com/onepost/notifier/internal/wire"
)

type LeaveHandlerInterface interface {
	Handle(ctx context.Context) (wire.UserPayload, error)
}

type LeaveHandler struct {
	gateway ConnectionGateway
}

func NewLeaveHandler(gateway ConnectionGateway) *LeaveHandler {
	return &LeaveHandler{
		gateway,
	}
}

func (h *LeaveHandler) Handle(ctx context.Context) (wire.UserPayload, error) {
	connection, ok := gateway.ConnectionFromContext(ctx)
	if !ok {
		return wire.UserPayload{}, errors.New("connection not found in context")
	}

	userId, err := h.gateway.Leave(connection.Id)
	if err != nil {
		return wire.UserPayload{}, err
	}

	return wire.UserPayload{
		UserId: userId,
	}, nil
}
