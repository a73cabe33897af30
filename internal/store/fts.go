package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Mirror maintenance is performed application-side rather than via SQLite
// triggers. Spec §9 ("Triggers vs app-side maintenance") explicitly
// sanctions this as an alternative as long as the §8 coherence invariant
// still holds atomically with the logical write — every call below runs
// inside the caller's transaction, so a rollback of the logical change
// rolls back the mirror update with it. Ancestor-path materialization
// (walking a tag's parent chain to emit every prefix form) is awkward to
// express as a single recursive-CTE trigger body; doing the walk in Go
// keeps it readable and keeps the same transaction boundary.
//
// tags_text is mirrored into its own fts_tags table rather than
// fts_files: fts_tags uses a tokenizer that keeps '/' inside a token
// (schema.go), so a full tag path like "project/frontend" stays one
// atomic token instead of splitting into word-adjacent pieces that a
// phrase query could match incorrectly.

// insertFileMirror materializes a brand-new FtsRow for a just-inserted
// file. Tags/attrs are empty at insert time (a freshly scanned file has
// neither yet). path/attrs_text live in fts_files; tags_text lives in
// its own fts_tags table so tag paths can use a tokenizer that keeps
// '/' inside a token (schema.go).
func insertFileMirror(tx *sql.Tx, fileID int64, path string) error {
	if _, err := tx.Exec(
		`INSERT INTO fts_files (file_id, path, attrs_text) VALUES (?, ?, '')`,
		fileID, path,
	); err != nil {
		return fmt.Errorf("materializing fts_files row for file %d: %w", fileID, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO fts_tags (file_id, tags_text) VALUES (?, '')`,
		fileID,
	); err != nil {
		return fmt.Errorf("materializing fts_tags row for file %d: %w", fileID, err)
	}
	return nil
}

// updateFileMirrorPath keeps the mirror's path column in sync with a
// renamed file, without touching tags_text/attrs_text.
func updateFileMirrorPath(tx *sql.Tx, fileID int64, newPath string) error {
	_, err := tx.Exec(`UPDATE fts_files SET path = ? WHERE file_id = ?`, newPath, fileID)
	if err != nil {
		return fmt.Errorf("updating fts path for file %d: %w", fileID, err)
	}
	return nil
}

// deleteFileMirror removes the FtsRow for a deleted file from both
// fts_files and fts_tags. FTS5 tables carry no foreign key, so the ON
// DELETE CASCADE from files does not reach them; DeleteFile calls this
// in the same transaction as its delete of the files row.
func deleteFileMirror(tx *sql.Tx, fileID int64) error {
	if _, err := tx.Exec(`DELETE FROM fts_files WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("deleting fts_files row for file %d: %w", fileID, err)
	}
	if _, err := tx.Exec(`DELETE FROM fts_tags WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("deleting fts_tags row for file %d: %w", fileID, err)
	}
	return nil
}

// rebuildFileMirror recomputes tags_text and attrs_text for one file from
// the current relational state and upsert-replaces the FtsRow (split
// across fts_tags and fts_files). Called after any FileTag insert/delete
// or Attribute insert/update/delete, per spec §4.1.
func rebuildFileMirror(tx *sql.Tx, fileID int64) error {
	tagsText, err := tagsTextForFile(tx, fileID)
	if err != nil {
		return err
	}
	attrsText, err := attrsTextForFile(tx, fileID)
	if err != nil {
		return err
	}

	tagsRes, err := tx.Exec(`UPDATE fts_tags SET tags_text = ? WHERE file_id = ?`, tagsText, fileID)
	if err != nil {
		return fmt.Errorf("rebuilding fts_tags row for file %d: %w", fileID, err)
	}
	if n, _ := tagsRes.RowsAffected(); n == 0 {
		// The file row exists (FK guarantees it) but its mirror row is
		// missing — repair rather than silently drop the invariant.
		if _, err := tx.Exec(
			`INSERT INTO fts_tags (file_id, tags_text) VALUES (?, ?)`,
			fileID, tagsText,
		); err != nil {
			return fmt.Errorf("repairing fts_tags row for file %d: %w", fileID, err)
		}
	}

	attrsRes, err := tx.Exec(`UPDATE fts_files SET attrs_text = ? WHERE file_id = ?`, attrsText, fileID)
	if err != nil {
		return fmt.Errorf("rebuilding fts_files row for file %d: %w", fileID, err)
	}
	if n, _ := attrsRes.RowsAffected(); n == 0 {
		var path string
		if err := tx.QueryRow(`SELECT path FROM files WHERE id = ?`, fileID).Scan(&path); err != nil {
			return fmt.Errorf("looking up path to repair fts_files row for file %d: %w", fileID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO fts_files (file_id, path, attrs_text) VALUES (?, ?, ?)`,
			fileID, path, attrsText,
		); err != nil {
			return fmt.Errorf("repairing fts_files row for file %d: %w", fileID, err)
		}
	}
	return nil
}

// tagsTextForFile computes the space-joined tag-path token set for a
// file: for every tag directly applied, every ancestor-prefixed path
// ("root", "root/child", "root/child/leaf"; the bare leaf name is not
// emitted on its own) so
// that tag:project matches any descendant (spec §4.1).
func tagsTextForFile(tx *sql.Tx, fileID int64) (string, error) {
	rows, err := tx.Query(`SELECT tag_id FROM file_tags WHERE file_id = ?`, fileID)
	if err != nil {
		return "", fmt.Errorf("listing tags for file %d: %w", fileID, err)
	}
	var leafIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return "", err
		}
		leafIDs = append(leafIDs, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	rows.Close()

	tokens := make(map[string]struct{})
	for _, leaf := range leafIDs {
		chain, err := tagAncestorChain(tx, leaf)
		if err != nil {
			return "", err
		}
		// chain is leaf->root; reverse to root->leaf before building
		// prefixes so "root" is the shortest token and the leaf path the
		// longest.
		for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
			chain[i], chain[j] = chain[j], chain[i]
		}
		for i := range chain {
			tokens[strings.Join(chain[:i+1], "/")] = struct{}{}
		}
	}

	return joinSortedTokens(tokens), nil
}

// tagAncestorChain walks parent_id from a leaf tag up to its root and
// returns names in leaf-to-root order.
func tagAncestorChain(tx *sql.Tx, tagID int64) ([]string, error) {
	var chain []string
	visited := make(map[int64]bool)
	cur := sql.NullInt64{Int64: tagID, Valid: true}
	for cur.Valid {
		if visited[cur.Int64] {
			return nil, NewError(KindInvalidArgument, "", fmt.Errorf("cycle detected in tag forest at tag %d", cur.Int64))
		}
		visited[cur.Int64] = true

		var name string
		var parent sql.NullInt64
		err := tx.QueryRow(`SELECT name, parent_id FROM tags WHERE id = ?`, cur.Int64).Scan(&name, &parent)
		if err == sql.ErrNoRows {
			return nil, NewError(KindNotFound, "", fmt.Errorf("tag %d not found while walking ancestors", cur.Int64))
		}
		if err != nil {
			return nil, fmt.Errorf("reading tag %d: %w", cur.Int64, err)
		}
		chain = append(chain, name)
		cur = parent
	}
	return chain, nil
}

// attrsTextForFile computes the space-joined key=value token set for a
// file's attributes.
func attrsTextForFile(tx *sql.Tx, fileID int64) (string, error) {
	rows, err := tx.Query(`SELECT key, value FROM attributes WHERE file_id = ?`, fileID)
	if err != nil {
		return "", fmt.Errorf("listing attributes for file %d: %w", fileID, err)
	}
	defer rows.Close()

	tokens := make(map[string]struct{})
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", err
		}
		tokens[key+"="+value] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return joinSortedTokens(tokens), nil
}

func joinSortedTokens(tokens map[string]struct{}) string {
	out := make([]string, 0, len(tokens))
	for t := range tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return strings.Join(out, " ")
}

// RebuildAllMirrors performs the one-shot pass spec §4.1 calls for after
// a bulk migration changes the tag-path algorithm: it recomputes every
// FtsRow from scratch.
func RebuildAllMirrors(tx *sql.Tx) error {
	rows, err := tx.Query(`SELECT id FROM files`)
	if err != nil {
		return fmt.Errorf("listing files for mirror rebuild: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := rebuildFileMirror(tx, id); err != nil {
			return err
		}
	}
	return nil
}
