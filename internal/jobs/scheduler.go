package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const trimSchedule = "0 30 3 * * *"

type StreamTrimmer interface {
	Trim(ctx context.Context) (int64, error)
	Name() string
}

type Scheduler struct {
	cron    *cron.Cron
	trimmer StreamTrimmer
	log     zerolog.Logger
}

// NewScheduler runs housekeeping for the auth event stream. trimmer may be
// nil when redis is not configured.
func NewScheduler(trimmer StreamTrimmer, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		trimmer: trimmer,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if s.trimmer == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(trimSchedule, s.trimEvents); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) trimEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dropped, err := s.trimmer.Trim(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("stream", s.trimmer.Name()).Msg("trim event stream failed")
		return
	}
	s.log.Info().Str("stream", s.trimmer.Name()).Int64("dropped", dropped).Msg("event stream trimmed")
}
