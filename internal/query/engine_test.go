package query

import (
	"context"
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

// TestSearchTagHierarchyDoesNotCrossMatch is a regression test for a
// false-positive tag match: a file tagged with both an unrelated flat
// tag and an unrelated hierarchical tag must not spuriously match a tag
// path that combines words from the two.
func TestSearchTagHierarchyDoesNotCrossMatch(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	eng := NewEngine(st)

	_, id, err := st.UpsertFile(ctx, "/docs/cross.txt", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id, "apple"))
	require.NoError(t, st.AddTag(ctx, id, "banana/core"))

	paths, err := eng.Search(ctx, "tag:apple/banana")
	require.NoError(t, err)
	assert.Empty(t, paths, "tag:apple/banana was never created and must not match")

	paths, err = eng.Search(ctx, "tag:apple")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/cross.txt"}, paths)

	paths, err = eng.Search(ctx, "tag:banana/core")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/cross.txt"}, paths)

	paths, err = eng.Search(ctx, "tag:banana")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/cross.txt"}, paths, "tag:banana must match its descendant banana/core")
}

// TestSearchTagAncestorChainDoesNotSelfCrossMatch guards the single-tag
// variant of the same bug: a tag's own materialized ancestor-prefix
// chain must not create a spurious match on an arbitrary subpath of
// itself that was never created as its own tag.
func TestSearchTagAncestorChainDoesNotSelfCrossMatch(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	eng := NewEngine(st)

	_, id, err := st.UpsertFile(ctx, "/docs/chain.txt", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id, "root/child/leaf"))

	paths, err := eng.Search(ctx, "tag:child/leaf")
	require.NoError(t, err)
	assert.Empty(t, paths, "child/leaf was never created as its own tag path")

	paths, err = eng.Search(ctx, "tag:root/child/leaf")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/chain.txt"}, paths)
}

func TestSearchMultiTagAndAttrFixture(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	eng := NewEngine(st)

	_, id1, err := st.UpsertFile(ctx, "/work/invoice.pdf", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id1, "work/invoices"))
	require.NoError(t, st.SetAttribute(ctx, id1, "status", "paid"))

	_, id2, err := st.UpsertFile(ctx, "/home/notes.md", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id2, "home/notes"))
	require.NoError(t, st.SetAttribute(ctx, id2, "status", "draft"))

	_, id3, err := st.UpsertFile(ctx, "/work/receipt.pdf", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id3, "work/receipts"))
	require.NoError(t, st.SetAttribute(ctx, id3, "status", "paid"))

	paths, err := eng.Search(ctx, "tag:work")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/work/invoice.pdf", "/work/receipt.pdf"}, paths)

	paths, err = eng.Search(ctx, "tag:work AND attr:status=paid")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/work/invoice.pdf", "/work/receipt.pdf"}, paths)

	paths, err = eng.Search(ctx, "tag:work/invoices")
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/invoice.pdf"}, paths)

	paths, err = eng.Search(ctx, "NOT tag:work")
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/notes.md"}, paths)

	paths, err = eng.Search(ctx, "tag:work OR tag:home")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/work/invoice.pdf", "/home/notes.md", "/work/receipt.pdf"}, paths)
}

func TestSearchWordMatchesFreeTextAcrossPathAndTags(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	eng := NewEngine(st)

	_, id, err := st.UpsertFile(ctx, "/projects/frontend/app.go", 1, 1)
	require.NoError(t, err)
	require.NoError(t, st.AddTag(ctx, id, "project/frontend"))

	paths, err := eng.Search(ctx, "frontend")
	require.NoError(t, err)
	assert.Equal(t, []string{"/projects/frontend/app.go"}, paths)
}

func TestSearchInvalidQueryReturnsStructuredError(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	eng := NewEngine(st)

	_, err := eng.Search(ctx, "")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}
