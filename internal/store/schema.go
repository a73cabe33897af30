package store

import (
	"database/sql"
	"fmt"
)

// createSchema creates every table, index, and FTS virtual table for a
// brand-new store file. It is called once by migration 1 (see
// migrations.go) and never again — schema evolution after that happens
// through additional migrations, not by re-running this function.
func createSchema(tx *sql.Tx) error {
	tables := []struct {
		name string
		ddl  string
	}{
		{"files", createFilesTable},
		{"tags", createTagsTable},
		{"file_tags", createFileTagsTable},
		{"attributes", createAttributesTable},
		{"links", createLinksTable},
		{"collections", createCollectionsTable},
		{"collection_files", createCollectionFilesTable},
		{"saved_views", createSavedViewsTable},
		{"file_dirty_marks", createFileDirtyMarksTable},
		{"fts_files", createFTSTable},
	}

	for _, t := range tables {
		if _, err := tx.Exec(t.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", t.name, err)
		}
	}

	for i, idx := range schemaIndexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("creating index %d: %w", i+1, err)
		}
	}

	return nil
}

const createFilesTable = `
CREATE TABLE files (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    path       TEXT NOT NULL UNIQUE,   -- absolute, forward-slash normalized
    size       INTEGER,                -- nullable: bytes
    mtime      INTEGER,                -- nullable: unix seconds
    hash       TEXT                    -- reserved for future content hashing
)
`

const createTagsTable = `
CREATE TABLE tags (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    name         TEXT NOT NULL,
    parent_id    INTEGER REFERENCES tags(id) ON DELETE CASCADE,
    canonical_id INTEGER REFERENCES tags(id) ON DELETE SET NULL,
    UNIQUE(name, parent_id)
)
`

const createFileTagsTable = `
CREATE TABLE file_tags (
    file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    tag_id  INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (file_id, tag_id)
)
`

const createAttributesTable = `
CREATE TABLE attributes (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    key     TEXT NOT NULL,
    value   TEXT NOT NULL,
    UNIQUE(file_id, key)
)
`

const createLinksTable = `
CREATE TABLE links (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    src_file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    dst_file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    type        TEXT NOT NULL DEFAULT '',
    UNIQUE(src_file_id, dst_file_id, type)
)
`

const createCollectionsTable = `
CREATE TABLE collections (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
)
`

const createCollectionFilesTable = `
CREATE TABLE collection_files (
    collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
    file_id       INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    PRIMARY KEY (collection_id, file_id)
)
`

const createSavedViewsTable = `
CREATE TABLE saved_views (
    id    INTEGER PRIMARY KEY AUTOINCREMENT,
    name  TEXT NOT NULL UNIQUE,
    query TEXT NOT NULL
)
`

const createFileDirtyMarksTable = `
CREATE TABLE file_dirty_marks (
    file_id   INTEGER PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
    marked_at INTEGER NOT NULL
)
`

// fts_files is the FTS mirror (§4.1, §3 FtsRow): one row per file, keyed
// by the same id, searchable path/tags/attrs text kept in sync
// application-side in fts.go (not SQL triggers) because the mirror text
// is a derived projection, not the files table's own columns verbatim.
//
// As shipped in migration 1, tags_text lives in this table alongside
// path and attrs_text. Migration 3 splits it out into its own fts_tags
// table (createFTSTagsTable below) so tag paths can use a tokenizer that
// doesn't treat '/' as a separator; this constant is left matching what
// migration 1 actually created; see migrations.go for the split.
const createFTSTable = `
CREATE VIRTUAL TABLE fts_files USING fts5(
    file_id UNINDEXED,
    path,
    tags_text,
    attrs_text,
    tokenize = "unicode61 separators '/_.'"
)
`

// fts_tags mirrors each file's materialized tag-path set (tagsTextForFile
// in fts.go) in its own FTS5 table so it can use a tokenizer that treats
// '/' as a token character instead of a separator (tokenchars '/'): a tag
// path like "project/frontend" then indexes as one atomic token rather
// than the word sequence "project","frontend". That's what makes the
// quoted TagTerm match on the full path a single-token match — sharing
// fts_files's tokenizer instead makes every multi-segment tag path a
// phrase/word-adjacency match, which is subject to false positives
// whenever two unrelated tags' word tokens land next to each other in
// the same mirror row after sorting. Created by migration 3, which also
// drops tags_text from fts_files.
const createFTSTagsTable = `
CREATE VIRTUAL TABLE fts_tags USING fts5(
    file_id UNINDEXED,
    tags_text,
    tokenize = "unicode61 separators '_.' tokenchars '/'"
)
`

// createFTSFilesTableNoTags is fts_files's post-migration-3 shape, used
// only by that migration when it rebuilds the table without tags_text
// (FTS5 virtual tables can't drop a column via ALTER TABLE).
const createFTSFilesTableNoTags = `
CREATE VIRTUAL TABLE fts_files_new USING fts5(
    file_id UNINDEXED,
    path,
    attrs_text,
    tokenize = "unicode61 separators '/_.'"
)
`

var schemaIndexes = []string{
	"CREATE INDEX idx_tags_parent ON tags(parent_id)",
	"CREATE INDEX idx_file_tags_tag ON file_tags(tag_id)",
	"CREATE INDEX idx_attributes_file ON attributes(file_id)",
	"CREATE INDEX idx_attributes_key ON attributes(key)",
	"CREATE INDEX idx_links_src ON links(src_file_id)",
	"CREATE INDEX idx_links_dst ON links(dst_file_id)",
	"CREATE INDEX idx_collection_files_file ON collection_files(file_id)",
	"CREATE INDEX idx_file_dirty_marks_marked_at ON file_dirty_marks(marked_at)",
}
