package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"accountdesk/internal/media"
	"accountdesk/internal/models"
	"accountdesk/internal/repository"
)

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (models.Profile, error)
	Upsert(ctx context.Context, p models.Profile) error
}

// AvatarOffloader moves inline avatar images out of the profile row.
type AvatarOffloader interface {
	Offload(ctx context.Context, userID int64, dataURI string) (string, error)
}

type ProfileService struct {
	profiles ProfileStore
	avatars  AvatarOffloader
	tracer   trace.Tracer
	log      zerolog.Logger
}

// NewProfileService builds the profile flows. avatars may be nil, in which
// case data URIs are stored as sent.
func NewProfileService(profiles ProfileStore, avatars AvatarOffloader, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		avatars:  avatars,
		tracer:   otel.Tracer("accountdesk/service"),
		log:      log,
	}
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.get")
	defer span.End()

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return models.DefaultProfile(userID), nil
		}
		return models.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, userID int64, input models.ProfileInput) error {
	ctx, span := s.tracer.Start(ctx, "profile.update")
	defer span.End()

	if err := input.Validate(); err != nil {
		return err
	}

	p := input.Normalize(userID)
	if s.avatars != nil && p.ProfileImage != nil && media.IsDataURI(*p.ProfileImage) {
		url, err := s.avatars.Offload(ctx, userID, *p.ProfileImage)
		if err != nil {
			return err
		}
		p.ProfileImage = &url
	}

	if err := s.profiles.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
