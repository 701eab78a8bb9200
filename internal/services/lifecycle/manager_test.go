package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_ClosesInReverseOrder(t *testing.T) {
	t.Parallel()

	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"postgres", "notifier", "http_server"} {
		m.OnShutdown(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http_server", "notifier", "postgres"}, order)
}

func TestShutdown_FailingComponentDoesNotStopTheRest(t *testing.T) {
	t.Parallel()

	m := New(time.Second, nil)

	errBroken := errors.New("close failed")
	var closedLast bool
	m.OnShutdown("storage", func(ctx context.Context) error {
		closedLast = true
		return nil
	})
	m.OnShutdown("broken", func(ctx context.Context) error {
		return errBroken
	})

	err := m.Shutdown(context.Background())
	require.ErrorIs(t, err, errBroken)
	assert.True(t, closedLast)
}

func TestAwaitSignal_ReturnsOnContextCancel(t *testing.T) {
	t.Parallel()

	m := New(time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.AwaitSignal(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitSignal did not return after context cancellation")
	}
}
