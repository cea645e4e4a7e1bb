package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/onepost/notifier/internal/gateway"
	"github.com/onepost/notifier/internal/wire"
)

// JoinRequest accepts the bare user id the browser client emits as well as {"userId": ...}.
type JoinRequest struct {
	UserId string `json:"userId"`
}

func (r *JoinRequest) UnmarshalJSON(data []byte) error {
	var userId string
	if err := json.Unmarshal(data, &userId); err == nil {
		r.UserId = userId
		return nil
	}

	type plain JoinRequest
	var request plain
	if err := json.Unmarshal(data, &request); err != nil {
		return err
	}

	r.UserId = request.UserId

	return nil
}

type ConnectionGateway interface {
	Join(connectionId string, userId string) error
	Leave(connectionId string) (string, error)
}

type JoinHandlerInterface interface {
	Handle(ctx context.Context, req JoinRequest) (wire.UserPayload, error)
}

type JoinHandler struct {
	gateway ConnectionGateway
}

func NewJoinHandler(gateway ConnectionGateway) *JoinHandler {
	return &JoinHandler{
		gateway,
	}
}

func (h *JoinHandler) Handle(ctx context.Context, req JoinRequest) (wire.UserPayload, error) {
	connection, ok := gateway.ConnectionFromContext(ctx)
	if !ok {
		return wire.UserPayload{}, errors.New("connection not found in context")
	}

	err := h.gateway.Join(connection.Id, req.UserId)
	if err != nil {
		return wire.UserPayload{}, err
	}

	return wire.UserPayload{
		UserId: connection.GetUserId(),
	}, nil
}
