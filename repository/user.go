package repository

import (
	"context"

	"github.com/tasknest/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts a new user and returns domain.ErrEmailTaken when the
	// email is already registered. The existence check and insert are one
	// atomic unit, backed by the store's unique index.
	Create(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
