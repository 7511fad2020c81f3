package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIdempotencyKey(t *testing.T) {
	userID := uuid.MustParse("7b0c4a6e-1f52-4f43-9f5e-2d7d3c0e1a11")
	assert.Equal(t, "idem:order:7b0c4a6e-1f52-4f43-9f5e-2d7d3c0e1a11:abc", IdempotencyKey(userID, "abc"))
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

func TestIdempotencyCache_UnreachableServerIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := NewIdempotencyCache(rdb, time.Minute, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	assert.NotPanics(t, func() { c.Remember(ctx, userID, "k", uuid.New()) })

	id, ok := c.Lookup(ctx, userID, "k")
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, id)
}
