package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	id "creatorid/pkg/domain"
)

const lockKeyPrefix = "recon:lock:"

// RedisRegistry is the distributed lock implementation for deployments where
// multiple instances may reconcile the same identity. SET NX with TTL gives
// atomic acquire-with-expiry; a crashed holder's lock clears itself.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry constructs a Redis-backed lock registry.
func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

// TryAcquire takes the lock with SET NX.
func (r *RedisRegistry) TryAcquire(ctx context.Context, identityID id.IdentityID, ttl time.Duration) (bool, error) {
	key := lockKeyPrefix + identityID.String()
	return r.client.SetNX(ctx, key, "1", ttl).Result()
}

// Release frees the lock.
func (r *RedisRegistry) Release(ctx context.Context, identityID id.IdentityID) error {
	key := lockKeyPrefix + identityID.String()
	return r.client.Del(ctx, key).Err()
}
