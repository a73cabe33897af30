package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanFullIndexesNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "world")

	st := openTestStore(t)
	sc, err := New(st, Options{})
	require.NoError(t, err)

	sum, err := sc.Scan(context.Background(), []string{root}, ModeFull)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Indexed)
	assert.Equal(t, 0, sum.Updated)

	paths, err := st.ListAllPaths(context.Background())
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestScanFullUnchangedOnRescan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")

	st := openTestStore(t)
	sc, err := New(st, Options{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = sc.Scan(ctx, []string{root}, ModeFull)
	require.NoError(t, err)

	sum, err := sc.Scan(ctx, []string{root}, ModeFull)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Indexed)
	assert.Equal(t, 0, sum.Updated)
	assert.Equal(t, 1, sum.Skipped)
}

func TestScanFullHonorsIgnoreGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), "hello")
	writeFile(t, filepath.Join(root, "node_modules", "dep.js"), "noise")

	st := openTestStore(t)
	sc, err := New(st, Options{IgnoreGlobs: []string{"**/node_modules/**"}})
	require.NoError(t, err)

	sum, err := sc.Scan(context.Background(), []string{root}, ModeFull)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Indexed)
}

func TestScanFullSkipsHiddenByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden"), "secret")
	writeFile(t, filepath.Join(root, "visible.txt"), "shown")

	st := openTestStore(t)
	sc, err := New(st, Options{})
	require.NoError(t, err)

	sum, err := sc.Scan(context.Background(), []string{root}, ModeFull)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Indexed)
}

func TestScanFullIndexesHiddenWhenConfigured(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden"), "secret")

	st := openTestStore(t)
	sc, err := New(st, Options{IndexHidden: true})
	require.NoError(t, err)

	sum, err := sc.Scan(context.Background(), []string{root}, ModeFull)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Indexed)
}

func TestScanDirtyClearsMarksOnSuccess(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "hello")

	st := openTestStore(t)
	sc, err := New(st, Options{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = sc.Scan(ctx, []string{root}, ModeFull)
	require.NoError(t, err)

	f, err := st.GetFileByPath(ctx, filepath.ToSlash(path))
	require.NoError(t, err)
	require.NoError(t, st.MarkDirty(ctx, f.ID))

	writeFile(t, path, "hello world")

	sum, err := sc.Scan(ctx, nil, ModeDirty)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Updated)

	dirty, err := st.ListDirty(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestScanDirtyCountsVanishedFileAsErrored(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "hello")

	st := openTestStore(t)
	sc, err := New(st, Options{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = sc.Scan(ctx, []string{root}, ModeFull)
	require.NoError(t, err)

	f, err := st.GetFileByPath(ctx, filepath.ToSlash(path))
	require.NoError(t, err)
	require.NoError(t, st.MarkDirty(ctx, f.ID))
	require.NoError(t, os.Remove(path))

	sum, err := sc.Scan(ctx, nil, ModeDirty)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Errored)
}
