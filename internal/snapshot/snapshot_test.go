package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlin-fs/marlin/internal/store"
)

func openTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "marlin.db")
	st, err := store.Open(context.Background(), dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, dbPath
}

func TestCreateBackupProducesTimestampedFile(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	_, _, err := st.UpsertFile(ctx, "/a/f.txt", 1, 1)
	require.NoError(t, err)

	dir := t.TempDir()
	eng := New(st, dir)
	at := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	path, err := eng.CreateBackup(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup_2026-07-30_12-00-00.db"), path)

	version, err := store.ReadSchemaVersionAt(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, store.SupportedSchemaVersion(), version)
}

func TestPruneKeepsNewestN(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	eng := New(st, dir)

	times := []time.Time{
		time.Date(2026, 7, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
	}
	for _, at := range times {
		_, err := eng.CreateBackup(ctx, at)
		require.NoError(t, err)
	}

	kept, removed, err := eng.Prune(2)
	require.NoError(t, err)
	assert.Len(t, kept, 2)
	assert.Len(t, removed, 1)
	assert.Contains(t, removed[0], "2026-07-28")
}

func TestRestoreReplacesLiveFile(t *testing.T) {
	st, dbPath := openTestStore(t)
	ctx := context.Background()
	_, _, err := st.UpsertFile(ctx, "/a/original.txt", 1, 1)
	require.NoError(t, err)

	dir := t.TempDir()
	eng := New(st, dir)
	backupPath, err := eng.CreateBackup(ctx, time.Now().UTC())
	require.NoError(t, err)

	_, _, err = st.UpsertFile(ctx, "/a/later.txt", 1, 1)
	require.NoError(t, err)

	require.NoError(t, Restore(ctx, st, backupPath, nil))

	paths, err := st.ListAllPaths(ctx)
	require.NoError(t, err)
	assert.Contains(t, paths, "/a/original.txt")
	assert.NotContains(t, paths, "/a/later.txt")
	assert.Equal(t, dbPath, st.Path())
}
