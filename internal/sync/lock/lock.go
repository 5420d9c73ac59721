// Package lock enforces the single-writer-per-identity discipline: at most
// one reconciliation mutates an identity at a time. A second attempt gets an
// immediate rejection, never a field-by-field interleave.
package lock

import (
	"context"
	"time"

	id "creatorid/pkg/domain"
)

// Registry acquires and releases per-identity reconciliation locks.
type Registry interface {
	// TryAcquire takes the lock for an identity, or reports false when a
	// reconciliation is already in flight. The TTL bounds how long a crashed
	// holder can keep the lock.
	TryAcquire(ctx context.Context, identityID id.IdentityID, ttl time.Duration) (bool, error)

	// Release frees the lock. Releasing an unheld lock is a no-op.
	Release(ctx context.Context, identityID id.IdentityID) error
}
