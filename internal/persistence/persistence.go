package persistence

import (
	"context"

	"github.com/onepost/notifier/internal/notification"
)

const DefaultListLimit = 100

type Engine interface {
	Setup(ctx context.Context) error
	Save(ctx context.Context, request SaveRequest) (notification.Notification, error)
	List(ctx context.Context, userId string, limit int) ([]notification.Notification, error)
	MarkAllRead(ctx context.Context, userId string) (int64, error)
}

type SaveRequest struct {
	UserId  string
	Type    notification.Type
	Message string
}
