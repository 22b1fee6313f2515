package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper is a Deduper backed by Redis SET NX with TTL, shared across
// indexer instances.
type RedisDeduper struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisDeduper creates a RedisDeduper using the given client.
func NewRedisDeduper(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisDeduper {
	if keyPrefix == "" {
		keyPrefix = "launch-indexer:seen:"
	}
	return &RedisDeduper{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Seen records id via SET NX and reports whether it already existed.
func (r *RedisDeduper) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.keyPrefix+id, 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe setnx %s: %w", id, err)
	}
	// SetNX returns true when the key was newly set, i.e. not seen before.
	return !ok, nil
}

var _ Deduper = (*RedisDeduper)(nil)
