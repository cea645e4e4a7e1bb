package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/onepost/notifier/internal/wire"
)

type State int

const (
	StateConnecting State = iota
	StateAnonymous
	StateIdentified
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAnonymous:
		return "anonymous"
	case StateIdentified:
		return "identified"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type Connection struct {
	Id            string
	EstablishedAt time.Time
	Send          chan wire.Frame

	mu     sync.RWMutex
	state  State
	userId string
}

func newConnection(id string, sendBufferSize int) *Connection {
	return &Connection{
		Id:            id,
		EstablishedAt: time.Now(),
		Send:          make(chan wire.Frame, sendBufferSize),
		state:         StateConnecting,
	}
}

func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

func (c *Connection) GetUserId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.userId
}

func (c *Connection) setState(state State, userId string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = state
	c.userId = userId
}

type contextKey string

const connectionKey contextKey = "connection"

func WithConnection(ctx context.Context, conn *Connection) context.Context {
	return context.WithValue(ctx, connectionKey, conn)
}

func ConnectionFromContext(ctx context.Context) (*Connection, bool) {
	conn, ok := ctx.Value(connectionKey).(*Connection)

	return conn, ok
}
