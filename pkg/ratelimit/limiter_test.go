package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	limiter.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _ = limiter.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are limited independently")

	clock = clock.Add(61 * time.Second)
	ok, _ = limiter.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "old requests leave the window")

	require.NoError(t, limiter.Reset(ctx, "1.2.3.4"))
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	clock := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	limiter := NewRedisLimiter(client, 2, time.Minute, "writes")
	limiter.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	windowKey := "ratelimit:writes:1.2.3.4:1767225600"
	assert.True(t, mr.Exists(windowKey))
	assert.Equal(t, time.Minute, mr.TTL(windowKey))

	require.NoError(t, limiter.Reset(ctx, "1.2.3.4"))
	ok, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)

	clock = clock.Add(time.Minute)
	ok, err = limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok)
}
