package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

type memTaskRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Task
}

func newMemTaskRepo(tasks ...domain.Task) *memTaskRepo {
	r := &memTaskRepo{byID: make(map[string]*domain.Task)}
	for i := range tasks {
		t := tasks[i]
		r.byID[t.ID] = &t
	}
	return r
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *memTaskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tasks []domain.Task
	for _, t := range r.byID {
		if t.UserID == filter.UserID {
			tasks = append(tasks, *t)
		}
	}
	return tasks, nil
}

func (r *memTaskRepo) ListDue(_ context.Context, now time.Time, window time.Duration) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tasks []domain.Task
	for _, t := range r.byID {
		if Due(*t, now, window) {
			tasks = append(tasks, *t)
		}
	}
	return tasks, nil
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *task
	r.byID[task.ID] = &copied
	return task, nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *task
	r.byID[task.ID] = &copied
	return nil
}

func (r *memTaskRepo) ClaimNotification(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.NotifiedAt != nil || t.Completed {
		return false, nil
	}
	t.NotifiedAt = &at
	return true, nil
}

func (r *memTaskRepo) Delete(_ context.Context, id string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

type memUserRepo struct {
	users map[string]*domain.User
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) Create(_ context.Context, _ *domain.User) error { return nil }

func (r *memUserRepo) UpdatePassword(_ context.Context, _, _ string) error { return nil }

type captureChannel struct {
	mu        sync.Mutex
	delivered []domain.Task
}

func (c *captureChannel) Name() string { return "capture" }

func (c *captureChannel) Deliver(_ context.Context, _ *domain.User, task domain.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, task)
	return nil
}

func (c *captureChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}

func newTestNotifier(t *testing.T, tasks *memTaskRepo, channels ...Channel) *Notifier {
	t.Helper()
	users := &memUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "a@x.com"},
	}}
	n, err := New(tasks, users, channels, nil, nil, Config{
		Interval: time.Minute,
		Window:   time.Hour,
	})
	require.NoError(t, err)
	return n
}

func TestNew_NormalizesScanInterval(t *testing.T) {
	t.Parallel()

	// Sub-second intervals would render as "@every 0s"; New must fall back
	// to a sane cadence instead of registering a broken schedule.
	n, err := New(newMemTaskRepo(), &memUserRepo{}, nil, nil, nil, Config{
		Interval: 500 * time.Millisecond,
		Window:   time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, n.cfg.Interval)
}

func TestScan_FiresOncePerTask(t *testing.T) {
	t.Parallel()

	now := time.Now()
	deadline := now.Add(30 * time.Minute)
	tasks := newMemTaskRepo(domain.Task{
		ID:       "t1",
		UserID:   "u1",
		Content:  "submit report",
		Deadline: &deadline,
	})

	capture := &captureChannel{}
	n := newTestNotifier(t, tasks, capture)
	n.now = func() time.Time { return now }

	require.NoError(t, n.Scan(context.Background()))
	assert.Equal(t, 1, capture.count())

	stored, err := tasks.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, stored.Notified())

	// One minute later the task is already notified and must not fire again.
	n.now = func() time.Time { return now.Add(time.Minute) }
	require.NoError(t, n.Scan(context.Background()))
	assert.Equal(t, 1, capture.count())
}

func TestScan_RespectsGate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	farDeadline := now.Add(90 * time.Minute)
	pastDeadline := now.Add(-5 * time.Minute)
	soonDeadline := now.Add(10 * time.Minute)

	tasks := newMemTaskRepo(
		domain.Task{ID: "far", UserID: "u1", Content: "later", Deadline: &farDeadline},
		domain.Task{ID: "past", UserID: "u1", Content: "missed", Deadline: &pastDeadline},
		domain.Task{ID: "done", UserID: "u1", Content: "finished", Deadline: &soonDeadline, Completed: true},
		domain.Task{ID: "open", UserID: "u1", Content: "urgent", Deadline: &soonDeadline},
	)

	capture := &captureChannel{}
	n := newTestNotifier(t, tasks, capture)
	n.now = func() time.Time { return now }

	require.NoError(t, n.Scan(context.Background()))
	require.Equal(t, 1, capture.count())
	assert.Equal(t, "open", capture.delivered[0].ID)
}

func TestScan_AllChannelsConsumeOneDecision(t *testing.T) {
	t.Parallel()

	now := time.Now()
	deadline := now.Add(30 * time.Minute)
	tasks := newMemTaskRepo(domain.Task{
		ID:       "t1",
		UserID:   "u1",
		Content:  "submit report",
		Deadline: &deadline,
	})

	first := &captureChannel{}
	second := &captureChannel{}
	n := newTestNotifier(t, tasks, first, second)
	n.now = func() time.Time { return now }

	require.NoError(t, n.Scan(context.Background()))
	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
}

func TestNudge_DoesNotBlock(t *testing.T) {
	t.Parallel()

	n := newTestNotifier(t, newMemTaskRepo())
	// No listener running; repeated nudges must still return immediately.
	for i := 0; i < 10; i++ {
		n.Nudge()
	}
}
