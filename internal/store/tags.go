package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// EnsureTagPath walks a slash-joined tag path ("project/alpha/draft"),
// auto-creating any missing intermediate Tag nodes with the correct
// parent chain, and returns the leaf Tag's id (spec §4.3 "tag add").
func (s *Store) EnsureTagPath(ctx context.Context, tagPath string) (int64, error) {
	segments, err := splitTagPath(tagPath)
	if err != nil {
		return 0, err
	}

	var leafID int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var parent sql.NullInt64
		for _, seg := range segments {
			id, err := ensureTagSegment(tx, seg, parent)
			if err != nil {
				return err
			}
			parent = sql.NullInt64{Int64: id, Valid: true}
			leafID = id
		}
		return nil
	})
	return leafID, err
}

func splitTagPath(tagPath string) ([]string, error) {
	segments := strings.Split(tagPath, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return nil, NewError(KindInvalidArgument, tagPath, fmt.Errorf("tag path has an empty segment"))
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return nil, NewError(KindInvalidArgument, tagPath, fmt.Errorf("tag path is empty"))
	}
	return out, nil
}

func ensureTagSegment(tx *sql.Tx, name string, parent sql.NullInt64) (int64, error) {
	var id int64
	var err error
	if parent.Valid {
		err = tx.QueryRow(`SELECT id FROM tags WHERE name = ? AND parent_id = ?`, name, parent.Int64).Scan(&id)
	} else {
		err = tx.QueryRow(`SELECT id FROM tags WHERE name = ? AND parent_id IS NULL`, name).Scan(&id)
	}
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up tag segment %q: %w", name, err)
	}

	res, err := tx.Exec(`INSERT INTO tags (name, parent_id) VALUES (?, ?)`, name, parent)
	if err != nil {
		return 0, fmt.Errorf("creating tag segment %q: %w", name, err)
	}
	return res.LastInsertId()
}

// AddTag implements "tag add <glob> <tag-path>" for a single resolved
// file: ensure the tag path exists, then insert FileTag idempotently.
func (s *Store) AddTag(ctx context.Context, fileID int64, tagPath string) error {
	leafID, err := s.EnsureTagPath(ctx, tagPath)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO file_tags (file_id, tag_id) VALUES (?, ?)`,
			fileID, leafID,
		); err != nil {
			return fmt.Errorf("tagging file %d with %s: %w", fileID, tagPath, err)
		}
		return rebuildFileMirror(tx, fileID)
	})
}

// RemoveTag implements "tag rm <glob> <tag-path>": removes the FileTag
// membership for the tag path's leaf, if it exists, without deleting the
// Tag node itself (other files may still reference it).
func (s *Store) RemoveTag(ctx context.Context, fileID int64, tagPath string) error {
	leafID, err := s.resolveTagPath(ctx, tagPath)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM file_tags WHERE file_id = ? AND tag_id = ?`, fileID, leafID); err != nil {
			return fmt.Errorf("removing tag %s from file %d: %w", tagPath, fileID, err)
		}
		return rebuildFileMirror(tx, fileID)
	})
}

// resolveTagPath looks up an existing tag path's leaf id without
// creating anything; used by read/remove operations.
func (s *Store) resolveTagPath(ctx context.Context, tagPath string) (int64, error) {
	segments, err := splitTagPath(tagPath)
	if err != nil {
		return 0, err
	}

	var id int64
	var parent sql.NullInt64
	for _, seg := range segments {
		var err error
		if parent.Valid {
			err = s.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ? AND parent_id = ?`, seg, parent.Int64).Scan(&id)
		} else {
			err = s.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ? AND parent_id IS NULL`, seg).Scan(&id)
		}
		if err == sql.ErrNoRows {
			return 0, NewError(KindNotFound, tagPath, fmt.Errorf("tag path does not exist"))
		}
		if err != nil {
			return 0, fmt.Errorf("resolving tag path %s: %w", tagPath, err)
		}
		parent = sql.NullInt64{Int64: id, Valid: true}
	}
	return id, nil
}

// ListTagsForFile returns the full slash-joined tag paths directly
// applied to a file (spec's implicit read-side complement to tag
// add/rm, supplemented per SPEC_FULL.md §C as "tag ls").
func (s *Store) ListTagsForFile(ctx context.Context, fileID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag_id FROM file_tags WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing tags for file %d: %w", fileID, err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		path, err := s.tagPathByID(ctx, id)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *Store) tagPathByID(ctx context.Context, tagID int64) (string, error) {
	var chain []string
	cur := sql.NullInt64{Int64: tagID, Valid: true}
	for cur.Valid {
		var name string
		var parent sql.NullInt64
		err := s.db.QueryRowContext(ctx, `SELECT name, parent_id FROM tags WHERE id = ?`, cur.Int64).Scan(&name, &parent)
		if err != nil {
			return "", fmt.Errorf("reading tag %d: %w", cur.Int64, err)
		}
		chain = append(chain, name)
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return strings.Join(chain, "/"), nil
}
