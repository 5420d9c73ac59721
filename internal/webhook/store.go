package webhook

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore tracks which event IDs have already been applied so
// replayed deliveries become no-ops.
type IdempotencyStore interface {
	// FirstSeen atomically records the key and reports whether this is its
	// first appearance. The TTL bounds how long replays are remembered.
	FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Forget drops the key so a failed application can be retried.
	Forget(ctx context.Context, key string) error
}

// InMemoryIdempotencyStore is the single-process implementation.
type InMemoryIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewInMemoryIdempotencyStore creates an empty store.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{seen: make(map[string]time.Time)}
}

// FirstSeen implements IdempotencyStore.
func (s *InMemoryIdempotencyStore) FirstSeen(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiry, ok := s.seen[key]; ok && expiry.After(now) {
		return false, nil
	}
	s.seen[key] = now.Add(ttl)
	return true, nil
}

// Forget implements IdempotencyStore.
func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
	return nil
}
