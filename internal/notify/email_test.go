package notify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/infrastructure/journal"
)

type fakeSender struct {
	failures int
	sent     []*gomail.Message
}

func (s *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp: connection refused")
	}
	s.sent = append(s.sent, m...)
	return nil
}

func openTestJournal(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), "reminders")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dueTask() (domain.Task, *domain.User) {
	deadline := time.Now().Add(30 * time.Minute)
	task := domain.Task{
		ID:       "t1",
		UserID:   "u1",
		Content:  "submit report",
		Deadline: &deadline,
	}
	return task, &domain.User{ID: "u1", Email: "a@x.com"}
}

func TestEmailChannel_Deliver(t *testing.T) {
	sender := &fakeSender{}
	ch := NewEmailChannel(sender, "reminders@tasknest.local", openTestJournal(t), nil, 3)

	task, user := dueTask()
	require.NoError(t, ch.Deliver(context.Background(), user, task))
	require.Len(t, sender.sent, 1)

	to := sender.sent[0].GetHeader("To")
	require.Len(t, to, 1)
	assert.Equal(t, "a@x.com", to[0])
}

func TestEmailChannel_JournalsFailureAndRetries(t *testing.T) {
	store := openTestJournal(t)
	sender := &fakeSender{failures: 1}
	ch := NewEmailChannel(sender, "reminders@tasknest.local", store, nil, 3)

	task, user := dueTask()
	err := ch.Deliver(context.Background(), user, task)
	require.Error(t, err)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	// Next retry pass succeeds and clears the journal.
	require.NoError(t, ch.Retry(context.Background()))
	assert.Len(t, sender.sent, 1)

	size, err = store.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestEmailChannel_DropsAfterMaxRetries(t *testing.T) {
	store := openTestJournal(t)
	sender := &fakeSender{failures: 100}
	ch := NewEmailChannel(sender, "reminders@tasknest.local", store, nil, 2)

	task, user := dueTask()
	require.Error(t, ch.Deliver(context.Background(), user, task))

	for i := 0; i < 3; i++ {
		require.NoError(t, ch.Retry(context.Background()))
	}

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size, "entry must be dropped once retries are exhausted")
	assert.Empty(t, sender.sent)
}
