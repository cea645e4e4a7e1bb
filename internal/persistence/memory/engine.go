package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/onepost/notifier/internal/notification"
	"github.com/onepost/notifier/internal/persistence"
)

// PersistenceEngine keeps notifications in process memory. Used for local runs and tests.
type PersistenceEngine struct {
	mu     sync.RWMutex
	byUser map[string][]notification.Notification
	now    func() time.Time
}

func NewPersistenceEngine() *PersistenceEngine {
	return &PersistenceEngine{
		byUser: make(map[string][]notification.Notification),
		now:    time.Now,
	}
}

func (e *PersistenceEngine) Setup(ctx context.Context) error {
	return nil
}

func (e *PersistenceEngine) Save(ctx context.Context, request persistence.SaveRequest) (notification.Notification, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := notification.Notification{
		Id:        uuid.NewString(),
		UserId:    request.UserId,
		Type:      request.Type,
		Message:   request.Message,
		CreatedAt: e.now(),
	}

	e.byUser[request.UserId] = append(e.byUser[request.UserId], n)

	return n, nil
}

func (e *PersistenceEngine) List(ctx context.Context, userId string, limit int) ([]notification.Notification, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stored := e.byUser[userId]

	notifications := make([]notification.Notification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		notifications = append(notifications, stored[i])
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}

	return notifications, nil
}

func (e *PersistenceEngine) MarkAllRead(ctx context.Context, userId string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var updated int64

	stored := e.byUser[userId]
	for i := range stored {
		if !stored[i].Read {
			stored[i].Read = true
			updated++
		}
	}

	return updated, nil
}
