package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"accountdesk/internal/config"
	"accountdesk/internal/ids"
)

type Kind string

const (
	KindSignup Kind = "signup"
	KindSignin Kind = "signin"
	KindLogout Kind = "logout"
)

var ErrMalformedEvent = errors.New("malformed auth event")

// Event is one entry on the auth event stream.
type Event struct {
	ID       string
	StreamID string
	Kind     Kind
	UserID   int64
	ClientIP string
	At       time.Time
}

func New(kind Kind, userID int64, clientIP string) Event {
	return Event{
		ID:       ids.New(),
		Kind:     kind,
		UserID:   userID,
		ClientIP: clientIP,
		At:       time.Now().UTC(),
	}
}

func (e Event) values() map[string]any {
	return map[string]any{
		"event_id":  e.ID,
		"kind":      string(e.Kind),
		"user_id":   strconv.FormatInt(e.UserID, 10),
		"client_ip": e.ClientIP,
		"at":        e.At.Format(time.RFC3339Nano),
	}
}

// Parse rebuilds an event from a stream message.
func Parse(msg redis.XMessage) (Event, error) {
	str := func(key string) string {
		v, _ := msg.Values[key].(string)
		return v
	}

	e := Event{
		ID:       str("event_id"),
		StreamID: msg.ID,
		Kind:     Kind(str("kind")),
		ClientIP: str("client_ip"),
	}
	switch e.Kind {
	case KindSignup, KindSignin, KindLogout:
	default:
		return Event{}, fmt.Errorf("%w: kind %q", ErrMalformedEvent, e.Kind)
	}

	uid, err := strconv.ParseInt(str("user_id"), 10, 64)
	if err != nil || uid <= 0 {
		return Event{}, fmt.Errorf("%w: user_id %q", ErrMalformedEvent, str("user_id"))
	}
	e.UserID = uid

	if at := str("at"); at != "" {
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return Event{}, fmt.Errorf("%w: at %q", ErrMalformedEvent, at)
		}
	}
	return e, nil
}

// Stream appends auth events to a capped redis stream.
type Stream struct {
	client *redis.Client
	name   string
	maxLen int64
}

func NewStream(client *redis.Client, cfg config.EventsConfig) *Stream {
	return &Stream{
		client: client,
		name:   cfg.Stream,
		maxLen: cfg.MaxLen,
	}
}

func (s *Stream) Publish(ctx context.Context, e Event) error {
	args := &redis.XAddArgs{
		Stream: s.name,
		Values: e.values(),
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Err()
}

// Trim caps the stream at its configured length and reports how many entries
// were dropped.
func (s *Stream) Trim(ctx context.Context) (int64, error) {
	if s.maxLen <= 0 {
		return 0, nil
	}
	return s.client.XTrimMaxLenApprox(ctx, s.name, s.maxLen, 0).Result()
}

func (s *Stream) Name() string {
	return s.name
}
