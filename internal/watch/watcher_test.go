package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlin-fs/marlin/internal/scanner"
	"github.com/marlin-fs/marlin/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "marlin.db")
	st, err := store.Open(context.Background(), dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Fail(t, "condition not met before timeout")
}

func TestStartTransitionsToWatching(t *testing.T) {
	root := t.TempDir()
	st := openTestStore(t)
	sc, err := scanner.New(st, scanner.Options{})
	require.NoError(t, err)

	w, err := New(st, sc, []string{root}, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop(context.Background())

	assert.Equal(t, StateWatching, w.State())
}

func TestWatcherIndexesCreatedFile(t *testing.T) {
	root := t.TempDir()
	st := openTestStore(t)
	sc, err := scanner.New(st, scanner.Options{})
	require.NoError(t, err)

	w, err := New(st, sc, []string{root}, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	defer w.Stop(ctx)

	path := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	waitFor(t, 2*time.Second, func() bool {
		_, err := st.GetFileByPath(ctx, filepath.ToSlash(path))
		return err == nil
	})
}

func TestPauseBuffersWithoutFlushing(t *testing.T) {
	root := t.TempDir()
	st := openTestStore(t)
	sc, err := scanner.New(st, scanner.Options{})
	require.NoError(t, err)

	w, err := New(st, sc, []string{root}, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	defer w.Stop(ctx)

	w.Pause()
	assert.Equal(t, StatePaused, w.State())

	path := filepath.Join(root, "paused.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))
	time.Sleep(100 * time.Millisecond)

	_, err = st.GetFileByPath(ctx, filepath.ToSlash(path))
	assert.Error(t, err, "paused watcher must not flush")

	w.Resume()
	waitFor(t, 2*time.Second, func() bool {
		_, err := st.GetFileByPath(ctx, filepath.ToSlash(path))
		return err == nil
	})
}

func TestStopDrainsQueueToDirtyMarks(t *testing.T) {
	root := t.TempDir()
	st := openTestStore(t)
	sc, err := scanner.New(st, scanner.Options{})
	require.NoError(t, err)

	path := filepath.Join(root, "existing.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))
	_, _, err = st.UpsertFile(context.Background(), filepath.ToSlash(path), 2, 1)
	require.NoError(t, err)

	w, err := New(st, sc, []string{root}, Options{Debounce: 10 * time.Second, DrainTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, w.Start(ctx))

	w.pausedMu.Lock()
	w.accumulated[path] = rawEvent{Path: path, Kind: KindModify, Timestamp: time.Now()}
	w.pausedMu.Unlock()

	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, StateStopped, w.State())

	dirty, err := st.ListDirty(ctx)
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, filepath.ToSlash(path), dirty[0].Path)
}

func TestPairRenamesDetectsSameSizeRename(t *testing.T) {
	root := t.TempDir()
	st := openTestStore(t)
	ctx := context.Background()

	oldPath := filepath.Join(root, "old.txt")
	newPath := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(newPath, []byte("hello"), 0o644))
	_, _, err := st.UpsertFile(ctx, filepath.ToSlash(oldPath), 5, 1)
	require.NoError(t, err)

	events := map[string]rawEvent{
		oldPath: {Path: oldPath, Kind: KindDelete},
		newPath: {Path: newPath, Kind: KindCreate},
	}

	pairs, rest := pairRenames(ctx, st, events)
	require.Len(t, pairs, 1)
	assert.Equal(t, oldPath, pairs[0].oldPath)
	assert.Equal(t, newPath, pairs[0].newPath)
	assert.Empty(t, rest)
}
