package events

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountdesk/internal/config"
)

func newTestStream(t *testing.T, maxLen int64) (*Stream, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStream(client, config.EventsConfig{Stream: "auth:events", MaxLen: maxLen}), client
}

func TestStream_PublishAndParse(t *testing.T) {
	stream, client := newTestStream(t, 100)
	ctx := context.Background()

	sent := New(KindSignin, 42, "10.0.0.1")
	require.NoError(t, stream.Publish(ctx, sent))

	msgs, err := client.XRange(ctx, "auth:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	got, err := Parse(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, KindSignin, got.Kind)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "10.0.0.1", got.ClientIP)
	assert.Equal(t, msgs[0].ID, got.StreamID)
	assert.True(t, sent.At.Equal(got.At))
}

func TestStream_Trim(t *testing.T) {
	stream, client := newTestStream(t, 0)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, stream.Publish(ctx, New(KindSignup, int64(i+1), "")))
	}

	dropped, err := stream.Trim(ctx)
	require.NoError(t, err)
	assert.Zero(t, dropped)

	stream.maxLen = 3
	_, err = stream.Trim(ctx)
	require.NoError(t, err)

	n, err := client.XLen(ctx, "auth:events").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, n, int64(10))
	assert.GreaterOrEqual(t, n, int64(3))
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{name: "unknown kind", values: map[string]any{"kind": "delete", "user_id": "1"}},
		{name: "missing user", values: map[string]any{"kind": "signin"}},
		{name: "zero user", values: map[string]any{"kind": "signin", "user_id": "0"}},
		{name: "bad time", values: map[string]any{"kind": "logout", "user_id": "3", "at": "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(redis.XMessage{ID: "1-0", Values: tt.values})
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}
