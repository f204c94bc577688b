package repository

import (
	"context"

	"projecthub/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Lookups of missing users return an error wrapping domain.ErrNotFound.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
