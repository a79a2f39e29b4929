package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"accountdesk/internal/events"
	"accountdesk/internal/repository"
)

type SigninRecorder interface {
	TouchLastSignin(ctx context.Context, userID int64) error
}

// Processor turns auth events into audit log lines and keeps
// users.last_signin_at current.
type Processor struct {
	users  SigninRecorder
	logger zerolog.Logger
}

func NewProcessor(users SigninRecorder, logger zerolog.Logger) *Processor {
	return &Processor{
		users:  users,
		logger: logger,
	}
}

// Handle returns an error only for failures worth retrying. Malformed events
// and events for deleted users are logged and dropped.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	e, err := events.Parse(msg)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed event")
		return nil
	}

	p.logger.Info().
		Str("event_id", e.ID).
		Str("kind", string(e.Kind)).
		Int64("user_id", e.UserID).
		Str("client_ip", e.ClientIP).
		Time("at", e.At).
		Msg("auth event")

	if e.Kind != events.KindSignin {
		return nil
	}

	if err := p.users.TouchLastSignin(ctx, e.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			p.logger.Warn().Int64("user_id", e.UserID).Msg("signin event for unknown user")
			return nil
		}
		return fmt.Errorf("record signin: %w", err)
	}
	return nil
}
