package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountdesk/internal/models"
	"accountdesk/internal/testutil"
)

type failingRecorder struct{ err error }

func (f failingRecorder) TouchLastSignin(context.Context, int64) error { return f.err }

func message(kind string, uid string) redis.XMessage {
	return redis.XMessage{ID: "1-0", Values: map[string]any{
		"event_id": "evt",
		"kind":     kind,
		"user_id":  uid,
		"at":       time.Now().UTC().Format(time.RFC3339Nano),
	}}
}

func TestProcessor_RecordsSignin(t *testing.T) {
	users := testutil.NewUsers()
	id, err := users.Create(context.Background(), models.User{Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)

	p := NewProcessor(users, zerolog.Nop())
	require.NoError(t, p.Handle(context.Background(), message("signin", "1")))

	user, err := users.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user.LastSigninAt)
	assert.WithinDuration(t, time.Now(), *user.LastSigninAt, time.Minute)
}

func TestProcessor_OtherKindsOnlyLogged(t *testing.T) {
	p := NewProcessor(failingRecorder{err: errors.New("must not be called")}, zerolog.Nop())

	assert.NoError(t, p.Handle(context.Background(), message("signup", "1")))
	assert.NoError(t, p.Handle(context.Background(), message("logout", "1")))
}

func TestProcessor_DropsUnprocessable(t *testing.T) {
	p := NewProcessor(testutil.NewUsers(), zerolog.Nop())

	assert.NoError(t, p.Handle(context.Background(), message("signin", "404")), "unknown user")
	assert.NoError(t, p.Handle(context.Background(), message("rename", "1")), "unknown kind")
	assert.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "1-0"}), "empty message")
}

func TestProcessor_RetriesStoreFailures(t *testing.T) {
	p := NewProcessor(failingRecorder{err: errors.New("db down")}, zerolog.Nop())

	assert.Error(t, p.Handle(context.Background(), message("signin", "1")))
}
