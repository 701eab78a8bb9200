package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

// ConnectionHealth abstracts the dependency monitor.
type ConnectionHealth interface {
	IsOnline() bool
}

// Config controls the scan cadence and the reminder window.
type Config struct {
	Interval time.Duration
	Window   time.Duration
}

// Notifier periodically scans the task store for deadlines entering the
// reminder window and dispatches each fired reminder to every channel. Task
// mutations nudge an immediate re-scan so reminders do not wait for the next
// tick.
type Notifier struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	channels []Channel
	health   ConnectionHealth
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      Config

	kick chan struct{}
	done chan struct{}
	now  func() time.Time
}

func New(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	channels []Channel,
	health ConnectionHealth,
	logger *zap.Logger,
	cfg Config,
) (*Notifier, error) {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	n := &Notifier{
		tasks:    tasks,
		users:    users,
		channels: channels,
		health:   health,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		now:      time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, err := n.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		n.tick(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("notify: register scan schedule %q: %w", schedule, err)
	}

	return n, nil
}

// Start launches the cron scheduler and the nudge listener.
func (n *Notifier) Start() {
	n.cron.Start()
	go n.listen()
	n.logger.Info("deadline notifier started",
		zap.Duration("interval", n.cfg.Interval),
		zap.Duration("window", n.cfg.Window))
}

// Stop halts scheduling and waits for a running scan to finish.
func (n *Notifier) Stop(ctx context.Context) {
	close(n.done)
	stopCtx := n.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	n.logger.Info("deadline notifier stopped")
}

// Nudge requests an immediate re-scan. It never blocks; a pending nudge
// coalesces with new ones.
func (n *Notifier) Nudge() {
	select {
	case n.kick <- struct{}{}:
	default:
	}
}

func (n *Notifier) listen() {
	for {
		select {
		case <-n.kick:
			ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Interval)
			n.tick(ctx)
			cancel()
		case <-n.done:
			return
		}
	}
}

func (n *Notifier) tick(ctx context.Context) {
	if n.health != nil && !n.health.IsOnline() {
		n.logger.Debug("skipping reminder scan (dependencies offline)")
		return
	}
	if err := n.Scan(ctx); err != nil {
		n.logger.Error("reminder scan failed", zap.Error(err))
	}
	n.retryChannels(ctx)
}

// Scan evaluates the gating rule over every candidate task and dispatches
// reminders for the ones it claims. Claiming is atomic per task, so a task
// fires exactly once regardless of concurrent scans or restarts.
func (n *Notifier) Scan(ctx context.Context) error {
	now := n.now()

	due, err := n.tasks.ListDue(ctx, now, n.cfg.Window)
	if err != nil {
		return err
	}

	for _, task := range due {
		if !Due(task, now, n.cfg.Window) {
			continue
		}

		claimed, err := n.tasks.ClaimNotification(ctx, task.ID, now)
		if err != nil {
			n.logger.Error("failed to claim reminder", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}

		user, err := n.users.GetByID(ctx, task.UserID)
		if err != nil {
			n.logger.Error("failed to resolve reminder recipient",
				zap.String("task_id", task.ID),
				zap.String("user_id", task.UserID),
				zap.Error(err))
			continue
		}

		notifiedAt := now
		task.NotifiedAt = &notifiedAt
		n.dispatch(ctx, user, task)
	}
	return nil
}

// dispatch hands the reminder to every channel. Delivery outcomes are logged
// but never feed back into the claimed state.
func (n *Notifier) dispatch(ctx context.Context, user *domain.User, task domain.Task) {
	for _, ch := range n.channels {
		if err := ch.Deliver(ctx, user, task); err != nil {
			n.logger.Warn("reminder delivery failed",
				zap.String("channel", ch.Name()),
				zap.String("task_id", task.ID),
				zap.Error(err))
			continue
		}
		n.logger.Info("reminder delivered",
			zap.String("channel", ch.Name()),
			zap.String("task_id", task.ID))
	}
}

func (n *Notifier) retryChannels(ctx context.Context) {
	for _, ch := range n.channels {
		retrier, ok := ch.(Retrier)
		if !ok {
			continue
		}
		if err := retrier.Retry(ctx); err != nil {
			n.logger.Warn("reminder retry pass failed",
				zap.String("channel", ch.Name()),
				zap.Error(err))
		}
	}
}
