package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "marlin.db")
	st, err := Open(context.Background(), dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenCreatesSchemaAtVersion(t *testing.T) {
	st := openTestStore(t)
	version, err := currentSchemaVersion(context.Background(), st.DB())
	require.NoError(t, err)
	assert.Equal(t, SupportedSchemaVersion(), version)
}

func TestUpsertFileInsertUpdateUnchanged(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	result, id, err := st.UpsertFile(ctx, "/home/user/doc.txt", 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, UpsertInserted, result)
	assert.NotZero(t, id)

	result, sameID, err := st.UpsertFile(ctx, "/home/user/doc.txt", 100, 1000)
	require.NoError(t, err)
	assert.Equal(t, UpsertUnchanged, result)
	assert.Equal(t, id, sameID)

	result, _, err = st.UpsertFile(ctx, "/home/user/doc.txt", 200, 2000)
	require.NoError(t, err)
	assert.Equal(t, UpsertUpdated, result)

	f, err := st.GetFileByPath(ctx, "/home/user/doc.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 200, f.Size.Int64)
	assert.EqualValues(t, 2000, f.MTime.Int64)
}

func TestRenamePathUpdatesMirror(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, id, err := st.UpsertFile(ctx, "/a/old.txt", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id, "project/notes"))

	require.NoError(t, st.RenamePath(ctx, "/a/old.txt", "/a/new.txt"))

	_, err = st.GetFileByPath(ctx, "/a/old.txt")
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)

	f, err := st.GetFileByPath(ctx, "/a/new.txt")
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)
}

func TestRenamePrefixBulk(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, _, err := st.UpsertFile(ctx, "/proj/a.go", 1, 1)
	require.NoError(t, err)
	_, _, err = st.UpsertFile(ctx, "/proj/sub/b.go", 1, 1)
	require.NoError(t, err)

	n, err := st.RenamePrefix(ctx, "/proj/", "/renamed/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	paths, err := st.ListAllPaths(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/renamed/a.go", "/renamed/sub/b.go"}, paths)
}

func TestDeleteFileCascades(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, id, err := st.UpsertFile(ctx, "/a/f.txt", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id, "work"))
	require.NoError(t, st.SetAttribute(ctx, id, "status", "draft"))

	require.NoError(t, st.DeleteFile(ctx, id))

	_, err = st.GetFileByPath(ctx, "/a/f.txt")
	require.Error(t, err)

	tags, err := st.ListTagsForFile(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestDeleteFileNotFound(t *testing.T) {
	st := openTestStore(t)
	err := st.DeleteFile(context.Background(), 999)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
}

func TestStatusCounts(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, id, err := st.UpsertFile(ctx, "/a/f.txt", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id, "work"))

	counts, version, err := st.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, SupportedSchemaVersion(), version)
	assert.Equal(t, 1, counts.Files)
	assert.Equal(t, 1, counts.Tags)
}

func TestCheckIntegrity(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.CheckIntegrity(context.Background()))
}
