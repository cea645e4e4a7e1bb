package server

import (
	"context"
	"testing"

	"github.com/onepost/notifier/internal/gateway"
	"github.com/onepost/notifier/internal/handler"
	"github.com/onepost/notifier/internal/ierr"
	"github.com/onepost/notifier/internal/presence"
	"github.com/onepost/notifier/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRouter_RouteFrame(t *testing.T) {
	logger := zap.NewNop()
	connectionGateway := gateway.NewGateway(logger, presence.NewInMemoryRegistry(logger), 4)

	router := NewRouter(
		logger,
		handler.NewHeartbeatHandler(),
		handler.NewJoinHandler(connectionGateway),
		handler.NewLeaveHandler(connectionGateway),
	)

	conn, err := connectionGateway.Connect()
	require.NoError(t, err)

	ctx := gateway.WithConnection(context.Background(), conn)

	t.Run("join", func(t *testing.T) {
		reply := router.RouteFrame(ctx, wire.Frame{Event: wire.EventJoin, Payload: []byte(`"u1"`)})

		assert.Equal(t, wire.EventJoined, reply.Event)
		assert.JSONEq(t, `{"userId":"u1"}`, string(reply.Payload))
	})

	t.Run("join with an undecodable payload", func(t *testing.T) {
		reply := router.RouteFrame(ctx, wire.Frame{Event: wire.EventJoin, Payload: []byte(`[1,2]`)})

		assert.Equal(t, wire.EventError, reply.Event)
		assert.Contains(t, string(reply.Payload), string(ierr.ErrorCodeInvalidJoinRequest))
	})

	t.Run("missing connection is an internal error", func(t *testing.T) {
		reply := router.RouteFrame(context.Background(), wire.Frame{Event: wire.EventLeave})

		assert.Equal(t, wire.EventError, reply.Event)
		assert.Contains(t, string(reply.Payload), string(ierr.ErrorCodeInternal))
	})

	t.Run("leave", func(t *testing.T) {
		reply := router.RouteFrame(ctx, wire.Frame{Event: wire.EventLeave})

		assert.Equal(t, wire.EventLeft, reply.Event)
		assert.JSONEq(t, `{"userId":"u1"}`, string(reply.Payload))
	})
}
