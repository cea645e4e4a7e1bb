package server

import (
	"context"
	"errors"

	"github.com/onepost/notifier/internal/handler"
	"github.com/onepost/notifier/internal/ierr"
	"github.com/onepost/notifier/internal/wire"
	"go.uber.org/zap"
)

// Router turns one inbound websocket frame into exactly one reply frame.
type Router struct {
	logger *zap.Logger

	heartbeatHandler handler.HeartbeatHandlerInterface
	joinHandler      handler.JoinHandlerInterface
	leaveHandler     handler.LeaveHandlerInterface
}

func NewRouter(
	logger *zap.Logger,
	heartbeatHandler handler.HeartbeatHandlerInterface,
	joinHandler handler.JoinHandlerInterface,
	leaveHandler handler.LeaveHandlerInterface,
) *Router {
	return &Router{
		logger,
		heartbeatHandler,
		joinHandler,
		leaveHandler,
	}
}

func (r *Router) RouteFrame(ctx context.Context, frame wire.Frame) wire.Frame {
	event, payload, err := r.Handle(ctx, frame)
	if err != nil {
		return wire.NewErrorFrame(r.mapError(err))
	}

	reply, err := wire.NewFrame(event, payload)
	if err != nil {
		return wire.NewErrorFrame(r.mapError(err))
	}

	return reply
}

func (r *Router) Handle(ctx context.Context, frame wire.Frame) (string, any, error) {
	switch frame.Event {
	case wire.EventHeartbeat:
		return wire.EventHeartbeat, r.heartbeatHandler.Handle(), nil
	case wire.EventJoin:
		var joinReq handler.JoinRequest
		if frame.HasPayload() {
			if err := frame.DecodePayload(&joinReq); err != nil {
				return "", nil, ierr.New(ierr.ErrorCodeInvalidJoinRequest, errors.New("invalid join payload: "+err.Error()))
			}
		}

		joined, err := r.joinHandler.Handle(ctx, joinReq)

		return wire.EventJoined, joined, err
	case wire.EventLeave:
		left, err := r.leaveHandler.Handle(ctx)

		return wire.EventLeft, left, err
	default:
		return "", nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("unknown event: "+frame.Event))
	}
}

func (r *Router) mapError(err error) ierr.Error {
	var handlerErr ierr.Error
	if errors.As(err, &handlerErr) {
		return handlerErr
	}

	r.logger.Error("error in event handler", zap.Error(err))

	return ierr.New(ierr.ErrorCodeInternal, errors.New("internal error"))
}
