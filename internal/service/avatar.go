package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"accountdesk/internal/media"
	"accountdesk/internal/media/sniffer"
	"accountdesk/internal/media/svg"
)

var ErrInvalidAvatar = errors.New("invalid profile image")

type ObjectPutter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type AvatarService struct {
	store ObjectPutter
	log   zerolog.Logger
}

func NewAvatarService(store ObjectPutter, log zerolog.Logger) *AvatarService {
	return &AvatarService{store: store, log: log}
}

// Offload decodes an inline image, checks it is an allowed image type and
// stores it under a content-addressed key, so saving the same picture twice
// writes the same object.
func (s *AvatarService) Offload(ctx context.Context, userID int64, dataURI string) (string, error) {
	_, data, err := media.DecodeDataURI(dataURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAvatar, err)
	}

	kind, err := sniffer.Detect(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAvatar, err)
	}

	if kind.Type == sniffer.TypeSVG {
		if data, err = svg.Sanitize(data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidAvatar, err)
		}
	}

	sum := sha256.Sum256(data)
	key := fmt.Sprintf("avatars/%d/%s.%s", userID, hex.EncodeToString(sum[:]), kind.Ext())

	url, err := s.store.Put(ctx, key, data, kind.MIME)
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	s.log.Debug().Int64("user_id", userID).Str("key", key).Int("bytes", len(data)).Msg("avatar stored")
	return url, nil
}
