package repository

import (
	"context"
	"time"

	"github.com/tasknest/backend/domain"
)

type TaskFilter struct {
	UserID    string
	Completed *bool
	Limit     int
	Offset    int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// ListDue returns open, not-yet-notified tasks whose deadline falls
	// strictly between now and now+window.
	ListDue(ctx context.Context, now time.Time, window time.Duration) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	// ClaimNotification stamps notified_at on the task if and only if it is
	// still unset, reporting whether this caller won the claim.
	ClaimNotification(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string, userID string) error
}
