package presence

import (
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Registry maps a user identity to the single connection notifications are routed to.
type Registry interface {
	// Set records connectionId as the live connection for userId, replacing any previous one.
	Set(userId string, connectionId string)

	// Get returns the connection currently registered for userId.
	Get(userId string) (string, bool)

	// RemoveIfMatches removes the entry for userId only while it still points at connectionId.
	RemoveIfMatches(userId string, connectionId string) bool

	// RemoveByConnection removes every entry still pointing at connectionId and returns the
	// affected user ids.
	RemoveByConnection(connectionId string) []string

	Len() int
}

type InMemoryRegistry struct {
	logger *zap.Logger
	mu     sync.RWMutex

	connectionByUser  map[string]string
	usersByConnection map[string]map[string]struct{}
}

func NewInMemoryRegistry(
	logger *zap.Logger,
) *InMemoryRegistry {
	return &InMemoryRegistry{
		logger:            logger,
		connectionByUser:  make(map[string]string),
		usersByConnection: make(map[string]map[string]struct{}),
	}
}

func (r *InMemoryRegistry) Set(userId string, connectionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previousConnectionId, ok := r.connectionByUser[userId]
	if ok && previousConnectionId == connectionId {
		return
	}

	if ok {
		r.logger.Debug("user presence displaced by a newer connection",
			zap.String("userId", userId),
			zap.String("previousConnectionId", previousConnectionId),
			zap.String("connectionId", connectionId))

		r.unindexLocked(userId, previousConnectionId)
	}

	r.connectionByUser[userId] = connectionId

	if _, ok := r.usersByConnection[connectionId]; !ok {
		r.usersByConnection[connectionId] = make(map[string]struct{})
	}

	r.usersByConnection[connectionId][userId] = struct{}{}
}

func (r *InMemoryRegistry) Get(userId string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connectionId, ok := r.connectionByUser[userId]

	return connectionId, ok
}

func (r *InMemoryRegistry) RemoveIfMatches(userId string, connectionId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeIfMatchesLocked(userId, connectionId)
}

func (r *InMemoryRegistry) RemoveByConnection(connectionId string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.usersByConnection[connectionId]
	if !ok {
		return nil
	}

	userIds := lo.Keys(users)
	removed := make([]string, 0, len(userIds))

	for _, userId := range userIds {
		if r.removeIfMatchesLocked(userId, connectionId) {
			removed = append(removed, userId)
		}
	}

	return removed
}

func (r *InMemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connectionByUser)
}

// IMPORTANT: It must be called only when a write lock is already held.
func (r *InMemoryRegistry) removeIfMatchesLocked(userId string, connectionId string) bool {
	current, ok := r.connectionByUser[userId]
	if !ok || current != connectionId {
		return false
	}

	delete(r.connectionByUser, userId)
	r.unindexLocked(userId, connectionId)

	return true
}

// IMPORTANT: It must be called only when a write lock is already held.
func (r *InMemoryRegistry) unindexLocked(userId string, connectionId string) {
	users, ok := r.usersByConnection[connectionId]
	if !ok {
		panic("inconsistent state: connection not found in usersByConnection")
	}

	delete(users, userId)
	if len(users) == 0 {
		delete(r.usersByConnection, connectionId)
	}
}
