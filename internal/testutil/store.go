package testutil

import (
	"context"
	"sync"
	"time"

	"accountdesk/internal/events"
	"accountdesk/internal/models"
	"accountdesk/internal/repository"
)

// Users is an in-memory stand-in for the users table, including its unique
// email constraint.
type Users struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.User

	Calls int
}

func NewUsers() *Users {
	return &Users{rows: make(map[int64]models.User)}
}

func (u *Users) Create(_ context.Context, user models.User) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++

	for _, row := range u.rows {
		if row.Email == user.Email {
			return 0, repository.ErrDuplicateEmail
		}
	}
	u.nextID++
	user.ID = u.nextID
	user.CreatedAt = time.Now().UTC()
	u.rows[user.ID] = user
	return user.ID, nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++

	for _, row := range u.rows {
		if row.Email == email {
			return row, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (u *Users) GetByID(_ context.Context, id int64) (models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++

	row, ok := u.rows[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return row, nil
}

func (u *Users) TouchLastSignin(_ context.Context, id int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++

	row, ok := u.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	now := time.Now().UTC()
	row.LastSigninAt = &now
	u.rows[id] = row
	return nil
}

func (u *Users) Delete(id int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.rows, id)
}

// Profiles is an in-memory stand-in for the profiles table.
type Profiles struct {
	mu   sync.Mutex
	rows map[int64]models.Profile

	Upserts int
}

func NewProfiles() *Profiles {
	return &Profiles{rows: make(map[int64]models.Profile)}
}

func (p *Profiles) GetByUserID(_ context.Context, userID int64) (models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	row, ok := p.rows[userID]
	if !ok {
		return models.Profile{}, repository.ErrProfileNotFound
	}
	return row, nil
}

func (p *Profiles) Upsert(_ context.Context, profile models.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Upserts++

	now := time.Now().UTC()
	if existing, ok := p.rows[profile.UserID]; ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.ID = int64(len(p.rows) + 1)
		profile.CreatedAt = &now
	}
	profile.UpdatedAt = &now
	p.rows[profile.UserID] = profile
	return nil
}

func (p *Profiles) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rows)
}

// Events records published auth events.
type Events struct {
	mu   sync.Mutex
	sent []events.Event
	Err  error
}

func (e *Events) Publish(_ context.Context, ev events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.sent = append(e.sent, ev)
	return nil
}

func (e *Events) Kinds() []events.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]events.Kind, 0, len(e.sent))
	for _, ev := range e.sent {
		out = append(out, ev.Kind)
	}
	return out
}
