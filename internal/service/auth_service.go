package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"accountdesk/internal/events"
	"accountdesk/internal/models"
	"accountdesk/internal/repository"
	"accountdesk/internal/security"
)

const minPasswordLength = 8

var (
	ErrMissingFields      = errors.New("missing fields")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

type UserStore interface {
	Create(ctx context.Context, user models.User) (int64, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, digest []byte) bool
}

type TokenIssuer interface {
	Issue(userID int64) (string, time.Time, error)
}

// EventPublisher receives auth events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type AuthService struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	events   EventPublisher
	validate *validator.Validate
	tracer   trace.Tracer
	log      zerolog.Logger
}

// NewAuthService wires the signup and signin flows. publisher may be nil.
func NewAuthService(
	users UserStore,
	hasher PasswordHasher,
	tokens TokenIssuer,
	publisher EventPublisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		events:   publisher,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("accountdesk/service"),
		log:      log,
	}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	ClientIP string
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "auth.signup")
	defer span.End()

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return 0, ErrMissingFields
	}
	if err := s.checkEmail(input.Email); err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		return 0, ErrPasswordTooShort
	}
	if len(input.Password) > security.MaxPasswordBytes {
		return 0, ErrPasswordTooLong
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.Create(ctx, models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", id))
	s.publish(ctx, events.New(events.KindSignup, id, input.ClientIP))
	return id, nil
}

type SigninInput struct {
	Email    string
	Password string
	ClientIP string
}

type SigninResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Signin answers ErrInvalidCredentials for both an unknown email and a wrong
// password.
func (s *AuthService) Signin(ctx context.Context, input SigninInput) (SigninResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.signin")
	defer span.End()

	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" || input.Password == "" {
		return SigninResult{}, ErrMissingFields
	}
	if err := s.checkEmail(input.Email); err != nil {
		return SigninResult{}, err
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return SigninResult{}, ErrInvalidCredentials
		}
		return SigninResult{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return SigninResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return SigninResult{}, fmt.Errorf("issue token: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	s.publish(ctx, events.New(events.KindSignin, user.ID, input.ClientIP))
	return SigninResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me resolves the identity behind a verified session. A subject whose row is
// gone is treated as signed out.
func (s *AuthService) Me(ctx context.Context, userID int64) (models.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "auth.me")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Identity{}, ErrUnauthenticated
		}
		return models.Identity{}, fmt.Errorf("get user: %w", err)
	}
	return user.Identity(), nil
}

// Logout records the event for a known subject. The session itself lives only
// in the client cookie.
func (s *AuthService) Logout(ctx context.Context, userID int64, clientIP string) {
	if userID <= 0 {
		return
	}
	s.publish(ctx, events.New(events.KindLogout, userID, clientIP))
}

func (s *AuthService) checkEmail(email string) error {
	if err := s.validate.Var(email, "email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("kind", string(e.Kind)).Int64("user_id", e.UserID).Msg("publish auth event failed")
	}
}
