package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"projecthub/internal/auth"
	"projecthub/internal/domain"
	"projecthub/internal/repository"
)

const minPasswordLength = 6

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// AccountService registers users and exchanges credentials for session tokens.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type accountService struct {
	users     repository.UserRepository
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenManager
	validate  *validator.Validate
	dummyHash string
}

func NewAccountService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager) (AccountService, error) {
	// verified against for unknown emails
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &accountService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validate:  validator.New(),
		dummyHash: dummy,
	}, nil
}

func (s *accountService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "account.register")
	defer span.End()

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, domain.Invalid("name", "Name is required")
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, domain.Invalid("email", "Valid email is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, domain.Invalid("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, domain.Invalid("password", fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrDuplicateAccount
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return sanitizeUser(user), nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := tracer.Start(ctx, "account.login")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.Invalid("email", "Valid email is required")
	}
	if password == "" {
		return nil, domain.Invalid("password", "Password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return &LoginResult{Token: token, UserID: user.ID, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
