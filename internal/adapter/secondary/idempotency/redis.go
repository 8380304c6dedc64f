package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskpipe/internal/port/secondary"
)

const keyPrefix = "taskpipe:processed:"

// RedisRegistry tracks processed task IDs in Redis. Keys carry a TTL so
// the set does not grow without bound; the TTL just has to outlive the
// longest plausible redelivery window.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry creates a registry whose marks expire after ttl.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) secondary.IdempotencyRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

// Seen reports whether the task ID has been marked processed.
func (r *RedisRegistry) Seen(ctx context.Context, taskID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+taskID).Result()
	if err != nil {
		return false, fmt.Errorf("checking idempotency key: %w", err)
	}
	return n > 0, nil
}

// Mark records the task ID as processed.
func (r *RedisRegistry) Mark(ctx context.Context, taskID string) error {
	if err := r.client.Set(ctx, keyPrefix+taskID, "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("setting idempotency key: %w", err)
	}
	return nil
}
