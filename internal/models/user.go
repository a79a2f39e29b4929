package models

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	LastSigninAt *time.Time
	CreatedAt    time.Time
}

// Identity is the projection of a user that is safe to hand back to the
// account owner.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
