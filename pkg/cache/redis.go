// Package cache holds the Redis fast path for order placement idempotency.
// The database unique index stays authoritative; a cache miss or a Redis
// outage only costs an extra query.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyPrefix = "idem:order:"

// NewRedisClient parses url, pings the server and returns the client.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type IdempotencyCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewIdempotencyCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *IdempotencyCache {
	return &IdempotencyCache{rdb: rdb, ttl: ttl, log: log}
}

func IdempotencyKey(userID uuid.UUID, key string) string {
	return idempotencyPrefix + userID.String() + ":" + key
}

// Lookup returns the order id remembered for (userID, key).
func (c *IdempotencyCache) Lookup(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool) {
	val, err := c.rdb.Get(ctx, IdempotencyKey(userID, key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("idempotency cache lookup failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return uuid.Nil, false
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Remember stores the order id for (userID, key). Failures are logged only.
func (c *IdempotencyCache) Remember(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) {
	if err := c.rdb.Set(ctx, IdempotencyKey(userID, key), orderID.String(), c.ttl).Err(); err != nil {
		c.log.Warn("idempotency cache write failed",
			zap.String("user_id", userID.String()),
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}
