package gateway

import (
	"errors"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/onepost/notifier/internal/ierr"
	"github.com/onepost/notifier/internal/presence"
	"github.com/onepost/notifier/internal/wire"
	"go.uber.org/zap"
)

const maxUserIdLength = 256

var (
	ErrNotConnected = errors.New("connection not found")
	ErrSlowConsumer = errors.New("connection send buffer is full")
)

// Gateway owns the lifecycle of every live connection and keeps the presence registry in
// step with it. Lock order is gateway before registry.
type Gateway struct {
	logger         *zap.Logger
	registry       presence.Registry
	sendBufferSize int

	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewGateway(
	logger *zap.Logger,
	registry presence.Registry,
	sendBufferSize int,
) *Gateway {
	return &Gateway{
		logger:         logger,
		registry:       registry,
		sendBufferSize: sendBufferSize,
		connections:    make(map[string]*Connection),
	}
}

func (g *Gateway) Connect() (*Connection, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	conn := newConnection(id, g.sendBufferSize)
	conn.setState(StateAnonymous, "")

	g.mu.Lock()
	g.connections[id] = conn
	g.mu.Unlock()

	return conn, nil
}

// Join registers userId as reachable through connectionId. The id is stored as sent.
// Joining again with the same identity is a no-op; joining with another identity releases
// the previous one first.
func (g *Gateway) Join(connectionId string, userId string) error {
	if strings.TrimSpace(userId) == "" {
		return ierr.New(ierr.ErrorCodeInvalidJoinRequest, errors.New("userId is required"))
	}

	if len(userId) > maxUserIdLength {
		return ierr.New(ierr.ErrorCodeInvalidJoinRequest, errors.New("userId is too long"))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	conn, ok := g.connections[connectionId]
	if !ok {
		return ierr.New(ierr.ErrorCodeFailedPrecondition, ErrNotConnected)
	}

	previousUserId := conn.GetUserId()
	if previousUserId != "" && previousUserId != userId {
		g.registry.RemoveIfMatches(previousUserId, connectionId)
	}

	conn.setState(StateIdentified, userId)
	g.registry.Set(userId, connectionId)

	g.logger.Info("user joined",
		zap.String("connectionId", connectionId),
		zap.String("userId", userId))

	return nil
}

// Leave drops the identity of connectionId without closing it.
func (g *Gateway) Leave(connectionId string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	conn, ok := g.connections[connectionId]
	if !ok {
		return "", ierr.New(ierr.ErrorCodeFailedPrecondition, ErrNotConnected)
	}

	userId := conn.GetUserId()
	if userId == "" {
		return "", ierr.New(ierr.ErrorCodeFailedPrecondition, errors.New("connection has not joined"))
	}

	g.registry.RemoveIfMatches(userId, connectionId)
	conn.setState(StateAnonymous, "")

	g.logger.Info("user left",
		zap.String("connectionId", connectionId),
		zap.String("userId", userId))

	return userId, nil
}

func (g *Gateway) Disconnect(connectionId string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.disconnectLocked(connectionId)
}

// TransportError only records the fault. The disconnect that follows performs the cleanup.
func (g *Gateway) TransportError(connectionId string, err error) {
	g.logger.Warn("transport error",
		zap.String("connectionId", connectionId),
		zap.Error(err))
}

// Push enqueues frame without waiting for it to reach the network. A connection whose
// buffer is full is disconnected.
func (g *Gateway) Push(connectionId string, frame wire.Frame) error {
	g.mu.RLock()

	conn, ok := g.connections[connectionId]
	if !ok {
		g.mu.RUnlock()

		return ErrNotConnected
	}

	select {
	case conn.Send <- frame:
		g.mu.RUnlock()

		return nil
	default:
	}

	g.mu.RUnlock()

	g.logger.Warn("connection send buffer is full, closing connection",
		zap.String("connectionId", connectionId))

	g.Disconnect(connectionId)

	return ErrSlowConsumer
}

func (g *Gateway) Connection(connectionId string) (*Connection, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	conn, ok := g.connections[connectionId]

	return conn, ok
}

func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.connections)
}

// Shutdown closes every connection. Writers observe the closed send channel and hang up.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for connectionId := range g.connections {
		g.disconnectLocked(connectionId)
	}
}

// IMPORTANT: It must be called only when a write lock is already held.
func (g *Gateway) disconnectLocked(connectionId string) {
	conn, ok := g.connections[connectionId]
	if !ok {
		return
	}

	removedUserIds := g.registry.RemoveByConnection(connectionId)

	delete(g.connections, connectionId)
	conn.setState(StateClosed, "")
	close(conn.Send)

	g.logger.Info("connection closed",
		zap.String("connectionId", connectionId),
		zap.Strings("userIds", removedUserIds))
}
