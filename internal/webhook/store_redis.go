package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "webhook:event:"

// RedisIdempotencyStore remembers applied event IDs across instances, so a
// platform retrying a delivery against a different replica still gets a
// no-op. SET NX with TTL gives the atomic first-seen check.
type RedisIdempotencyStore struct {
	client *redis.Client
}

// NewRedisIdempotencyStore constructs a Redis-backed idempotency store.
func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

// FirstSeen implements IdempotencyStore.
func (s *RedisIdempotencyStore) FirstSeen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, idempotencyKeyPrefix+key, "1", ttl).Result()
}

// Forget implements IdempotencyStore.
func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
