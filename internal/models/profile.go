package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxHandleLength is the column width of the social handle fields, in
// characters.
const MaxHandleLength = 255

var ErrHandleTooLong = errors.New("social handle too long")

type Profile struct {
	ID           int64      `json:"id,omitempty"`
	UserID       int64      `json:"user_id"`
	ProfileImage *string    `json:"profile_image"`
	Twitter      string     `json:"twitter"`
	Instagram    string     `json:"instagram"`
	LinkedIn     string     `json:"linkedin"`
	GitHub       string     `json:"github"`
	Bio          string     `json:"bio"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// DefaultProfile is what a user without a stored profile sees.
func DefaultProfile(userID int64) Profile {
	return Profile{UserID: userID}
}

// ProfileInput carries the writable profile fields. Nil means the field was
// absent from the request.
type ProfileInput struct {
	ProfileImage *string
	Twitter      *string
	Instagram    *string
	LinkedIn     *string
	GitHub       *string
	Bio          *string
}

// Validate rejects handles the store cannot hold.
func (in ProfileInput) Validate() error {
	handles := []struct {
		name  string
		value *string
	}{
		{"twitter", in.Twitter},
		{"instagram", in.Instagram},
		{"linkedin", in.LinkedIn},
		{"github", in.GitHub},
	}
	for _, h := range handles {
		if h.value != nil && utf8.RuneCountInString(*h.value) > MaxHandleLength {
			return fmt.Errorf("%w: %s", ErrHandleTooLong, h.name)
		}
	}
	return nil
}

// Normalize turns an input into the stored shape: absent or empty image is
// NULL, every other absent field is the empty string.
func (in ProfileInput) Normalize(userID int64) Profile {
	p := Profile{
		UserID:    userID,
		Twitter:   deref(in.Twitter),
		Instagram: deref(in.Instagram),
		LinkedIn:  deref(in.LinkedIn),
		GitHub:    deref(in.GitHub),
		Bio:       deref(in.Bio),
	}
	if in.ProfileImage != nil && *in.ProfileImage != "" {
		img := *in.ProfileImage
		p.ProfileImage = &img
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
