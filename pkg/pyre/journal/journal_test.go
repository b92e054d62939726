package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lets every conformance test run against both
// implementations.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
			require.NoError(t, err)
			return store
		},
	}
}

func sampleEntry(runID string, status Status) Entry {
	return Entry{
		RunID:        runID,
		InvocationID: "inv-1",
		NodeID:       "parse",
		Status:       status,
		At:           time.Now(),
		Duration:     42 * time.Millisecond,
	}
}

func TestStore_AppendAndList(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()

			require.NoError(t, store.Append(sampleEntry("run-1", StatusStarted)))
			require.NoError(t, store.Append(sampleEntry("run-1", StatusCompleted)))
			require.NoError(t, store.Append(sampleEntry("run-2", StatusStarted)))

			entries, err := store.List("run-1")
			require.NoError(t, err)
			require.Len(t, entries, 2)

			assert.Equal(t, StatusStarted, entries[0].Status)
			assert.Equal(t, StatusCompleted, entries[1].Status)
			assert.Less(t, entries[0].Seq, entries[1].Seq)
			assert.Equal(t, "run-1", entries[0].RunID)
			assert.Equal(t, "parse", entries[0].NodeID)
			assert.Equal(t, 42*time.Millisecond, entries[0].Duration)
		})
	}
}

func TestStore_ListUnknownRun(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()

			entries, err := store.List("nope")

			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestStore_DeleteRun(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()

			require.NoError(t, store.Append(sampleEntry("run-1", StatusStarted)))
			require.NoError(t, store.Append(sampleEntry("run-2", StatusStarted)))

			require.NoError(t, store.DeleteRun("run-1"))
			require.NoError(t, store.DeleteRun("never-existed"))

			entries, err := store.List("run-1")
			require.NoError(t, err)
			assert.Empty(t, entries)

			kept, err := store.List("run-2")
			require.NoError(t, err)
			assert.Len(t, kept, 1)
		})
	}
}

func TestStore_ClosedErrors(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			require.NoError(t, store.Close())

			err := store.Append(sampleEntry("run-1", StatusStarted))
			assert.ErrorIs(t, err, ErrStoreClosed)

			_, err = store.List("run-1")
			assert.ErrorIs(t, err, ErrStoreClosed)

			err = store.DeleteRun("run-1")
			assert.ErrorIs(t, err, ErrStoreClosed)
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(sampleEntry("run-1", StatusRunStarted)))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List("run-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusRunStarted, entries[0].Status)
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestMemoryStore_Len(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Append(sampleEntry("run-1", StatusStarted)))
	require.NoError(t, store.Append(sampleEntry("run-2", StatusStarted)))

	assert.Equal(t, 2, store.Len())
}
