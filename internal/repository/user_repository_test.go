package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountdesk/internal/models"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

const selectUserQuery = `(?s)^\s*SELECT\s+id,\s*username,\s*email,\s*password,\s*last_signin_at,\s*created_at\s+FROM\s+users\s+WHERE\s+`

func TestUserRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password,\s*created_at\).*RETURNING\s+id`).
		WithArgs("alice", "alice@example.com", "$2a$10$hash").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.Create(context.Background(), models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: []byte("$2a$10$hash"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("bob", "taken@example.com", "h").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), models.User{Username: "bob", Email: "taken@example.com", PasswordHash: []byte("h")})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_CreateOtherError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	dbErr := errors.New("db down")
	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs("bob", "bob@example.com", "h").
		WillReturnError(dbErr)

	_, err := repo.Create(context.Background(), models.User{Username: "bob", Email: "bob@example.com", PasswordHash: []byte("h")})
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(selectUserQuery+`email\s*=\s*\$1`).
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password", "last_signin_at", "created_at"}).
			AddRow(int64(7), "alice", "alice@example.com", "digest", (*time.Time)(nil), created))

	user, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, []byte("digest"), user.PasswordHash)
	assert.Nil(t, user.LastSigninAt)
	assert.Equal(t, created, user.CreatedAt)
}

func TestUserRepository_FindByEmailNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(selectUserQuery+`email\s*=\s*\$1`).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(selectUserQuery+`id\s*=\s*\$1`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_TouchLastSignin(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+last_signin_at\s*=\s*NOW\(\)`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+last_signin_at`).
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.TouchLastSignin(context.Background(), 7))
	assert.ErrorIs(t, repo.TouchLastSignin(context.Background(), 8), ErrUserNotFound)
}
