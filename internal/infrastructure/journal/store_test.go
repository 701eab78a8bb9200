package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"), "reminders")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueGetRemove(t *testing.T) {
	store := openStore(t)

	deadline := time.Now().Add(30 * time.Minute)
	require.NoError(t, store.Enqueue(Entry{
		Email:    "a@x.com",
		TaskID:   "t1",
		Content:  "submit report",
		Deadline: &deadline,
	}))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	entries, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x.com", entries[0].Email)
	assert.Equal(t, "t1", entries[0].TaskID)
	assert.NotEmpty(t, entries[0].ID)

	require.NoError(t, store.Remove(entries[0]))
	size, err = store.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestGetBatch_OrderedOldestFirst(t *testing.T) {
	store := openStore(t)

	base := time.Now()
	require.NoError(t, store.Enqueue(Entry{TaskID: "newer", Email: "a@x.com", Timestamp: base.Add(time.Second)}))
	require.NoError(t, store.Enqueue(Entry{TaskID: "older", Email: "a@x.com", Timestamp: base}))

	entries, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "older", entries[0].TaskID)
	assert.Equal(t, "newer", entries[1].TaskID)
}

func TestRequeue_PreservesRetryCount(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.Enqueue(Entry{TaskID: "t1", Email: "a@x.com"}))
	entries, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	require.NoError(t, store.Remove(entry))
	entry.Retries = 2
	require.NoError(t, store.Requeue(entry))

	entries, err = store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Retries)
}
