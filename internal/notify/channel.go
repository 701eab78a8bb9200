package notify

import (
	"context"

	"github.com/tasknest/backend/domain"
)

// Channel delivers a fired reminder to the user. Delivery is fire-and-forget
// from the notifier's point of view: a failing channel never un-claims the
// task or blocks the other channels.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, user *domain.User, task domain.Task) error
}

// Retrier is implemented by channels that keep their own delivery-attempt log
// and can replay failed deliveries later.
type Retrier interface {
	Retry(ctx context.Context) error
}
