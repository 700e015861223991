// Package auth provides password hashing, token issuance and the
// register / login / authenticate flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/notesapi/internal/model"
	"github.com/hitoshi/notesapi/internal/repository"
	"github.com/hitoshi/notesapi/internal/validation"
)

// EventRecorder receives auth outcomes for metrics.
type EventRecorder interface {
	RecordAuthEvent(event, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthEvent(string, string) {}

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *model.User
	Token string
}

// Service implements account registration, login and token authentication.
type Service struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	tokens    *TokenService
	validator *validation.Validator
	recorder  EventRecorder
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder sets the EventRecorder.
func WithRecorder(r EventRecorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithServiceClock replaces time.Now for user timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service.
func NewService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens *TokenService,
	validator *validation.Validator,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		s.recorder.RecordAuthEvent("register", "invalid")
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		s.recorder.RecordAuthEvent("register", "duplicate")
		return nil, model.NewUserAlreadyExistsError()
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.recorder.RecordAuthEvent("register", "duplicate")
			return nil, model.NewUserAlreadyExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	s.recorder.RecordAuthEvent("register", "success")
	slog.Info("user registered", slog.String("user_id", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// Login checks credentials and returns the user with a fresh token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		s.recorder.RecordAuthEvent("login", "invalid")
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recorder.RecordAuthEvent("login", "user_not_found")
		return nil, model.NewUserNotFoundError()
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.recorder.RecordAuthEvent("login", "invalid_credentials")
		slog.Warn("login failed", slog.String("user_id", user.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	s.recorder.RecordAuthEvent("login", "success")

	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to its user.
// Invalid tokens and tokens of deleted users are unauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Verify(token)
	if err == nil {
		_, err = uuid.Parse(userID)
	}
	if err != nil {
		s.recorder.RecordAuthEvent("authenticate", "invalid_token")
		return nil, model.NewUnauthorizedError(model.MsgTokenFailed)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recorder.RecordAuthEvent("authenticate", "unknown_user")
		return nil, model.NewUnauthorizedError(model.MsgTokenFailed)
	}

	return user, nil
}
