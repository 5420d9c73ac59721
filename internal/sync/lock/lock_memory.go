package lock

import (
	"context"
	"sync"
	"time"

	id "creatorid/pkg/domain"
)

// InMemoryRegistry is the single-process lock implementation. For multi
// instance deployments use RedisRegistry instead.
type InMemoryRegistry struct {
	mu    sync.Mutex
	held  map[id.IdentityID]time.Time
	clock func() time.Time
}

// NewInMemoryRegistry creates an in-memory lock registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		held:  make(map[id.IdentityID]time.Time),
		clock: time.Now,
	}
}

// TryAcquire takes the lock unless it is held and unexpired.
func (r *InMemoryRegistry) TryAcquire(_ context.Context, identityID id.IdentityID, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	if expiry, ok := r.held[identityID]; ok && expiry.After(now) {
		return false, nil
	}
	r.held[identityID] = now.Add(ttl)
	return true, nil
}

// Release frees the lock.
func (r *InMemoryRegistry) Release(_ context.Context, identityID id.IdentityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, identityID)
	return nil
}
