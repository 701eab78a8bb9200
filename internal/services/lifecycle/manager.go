// Package lifecycle tears the server down in the reverse of its start-up
// order: HTTP listener first, then the notifier, then storage, so no request
// or reminder scan observes a closed pool.
package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// CloseFunc releases one component during shutdown.
type CloseFunc func(ctx context.Context) error

type closer struct {
	component string
	close     CloseFunc
}

// Manager collects per-component close functions while the server wires
// itself up, then runs them LIFO under a shared deadline.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	closers []closer
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// OnShutdown registers a close function. Registration order is start-up
// order; Shutdown runs the functions in reverse.
func (m *Manager) OnShutdown(component string, close CloseFunc) {
	if close == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closers = append(m.closers, closer{component: component, close: close})
}

// AwaitSignal blocks until SIGTERM or SIGINT arrives, or until ctx is
// cancelled, whichever comes first.
func (m *Manager) AwaitSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}
}

// Shutdown closes every registered component in reverse order. A failing
// component is logged and skipped so the ones below it still get closed; the
// errors are joined into the return value.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	var result error
	for i := len(m.closers) - 1; i >= 0; i-- {
		c := m.closers[i]
		if err := c.close(ctx); err != nil {
			m.logger.Error("component close failed", zap.String("component", c.component), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", c.component))
	}
	return result
}
