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

func TestRedisLimiter_FixedWindow(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Positive(t, d.RetryAfter)

	d, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "keys are counted separately")

	for _, key := range srv.Keys() {
		assert.Positive(t, srv.TTL(key), key)
	}
}

func TestRedisLimiter_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	defer client.Close()
	srv.Close()

	_, err := NewRedisLimiter(client, 1, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestMemoryLimiter_Burst(t *testing.T) {
	l := NewMemoryLimiter(5, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
	}

	d, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, 12, d.RetryAfter.Seconds(), 0.01)

	d, _ = l.Allow(ctx, "b")
	assert.True(t, d.Allowed)

	now = now.Add(13 * time.Second)
	d, _ = l.Allow(ctx, "a")
	assert.True(t, d.Allowed, "one token refilled")
}

func TestMemoryLimiter_SweepsIdleKeys(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "a")
	now = now.Add(2 * time.Minute)
	_, _ = l.Allow(context.Background(), "b")

	assert.NotContains(t, l.buckets, "a")
	assert.Contains(t, l.buckets, "b")
}
