package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"accountdesk/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (models.Profile, error) {
	const query = `
		SELECT id, user_id, profile_image, twitter, instagram, linkedin, github, bio,
		       created_at, updated_at
		FROM profiles WHERE user_id = $1
	`

	row := r.db.QueryRow(ctx, query, userID)
	var p models.Profile
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ProfileImage,
		&p.Twitter,
		&p.Instagram,
		&p.LinkedIn,
		&p.GitHub,
		&p.Bio,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return p, nil
}

// Upsert writes every profile field in one statement, so concurrent first
// writes for the same user never produce two rows.
func (r *ProfileRepository) Upsert(ctx context.Context, p models.Profile) error {
	const query = `
		INSERT INTO profiles (
			user_id, profile_image, twitter, instagram, linkedin, github, bio, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
		ON CONFLICT (user_id) DO UPDATE SET
			profile_image = EXCLUDED.profile_image,
			twitter       = EXCLUDED.twitter,
			instagram     = EXCLUDED.instagram,
			linkedin      = EXCLUDED.linkedin,
			github        = EXCLUDED.github,
			bio           = EXCLUDED.bio,
			updated_at    = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		p.UserID,
		p.ProfileImage,
		p.Twitter,
		p.Instagram,
		p.LinkedIn,
		p.GitHub,
		p.Bio,
	)
	return err
}
