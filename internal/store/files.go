package store

import (
	"context"
	"database/sql"
	"fmt"
)

// File mirrors the File entity of spec §3.
type File struct {
	ID    int64
	Path  string
	Size  sql.NullInt64
	MTime sql.NullInt64
	Hash  sql.NullString
}

// UpsertResult reports which branch of the upsert fired, used by the
// Scanner to build its (indexed, updated, skipped) summary.
type UpsertResult int

const (
	UpsertInserted UpsertResult = iota
	UpsertUpdated
	UpsertUnchanged
)

// UpsertFile implements the Scanner's per-file upsert policy (spec
// §4.2): insert if new; if existing and (size, mtime) unchanged, skip;
// otherwise update. The FTS mirror is kept in lockstep within the same
// transaction.
func (s *Store) UpsertFile(ctx context.Context, path string, size, mtime int64) (UpsertResult, int64, error) {
	var result UpsertResult
	var fileID int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existingID int64
		var existingSize, existingMTime sql.NullInt64
		err := tx.QueryRow(`SELECT id, size, mtime FROM files WHERE path = ?`, path).
			Scan(&existingID, &existingSize, &existingMTime)

		switch {
		case err == sql.ErrNoRows:
			res, err := tx.Exec(`INSERT INTO files (path, size, mtime) VALUES (?, ?, ?)`, path, size, mtime)
			if err != nil {
				return fmt.Errorf("inserting file %s: %w", path, err)
			}
			fileID, err = res.LastInsertId()
			if err != nil {
				return err
			}
			if err := insertFileMirror(tx, fileID, path); err != nil {
				return err
			}
			result = UpsertInserted
			return nil

		case err != nil:
			return fmt.Errorf("looking up file %s: %w", path, err)

		default:
			fileID = existingID
			if existingSize.Valid && existingSize.Int64 == size && existingMTime.Valid && existingMTime.Int64 == mtime {
				result = UpsertUnchanged
				return nil
			}
			if _, err := tx.Exec(`UPDATE files SET size = ?, mtime = ? WHERE id = ?`, size, mtime, existingID); err != nil {
				return fmt.Errorf("updating file %s: %w", path, err)
			}
			result = UpsertUpdated
			return nil
		}
	})
	if err != nil {
		return 0, 0, err
	}
	return result, fileID, nil
}

// RenamePath implements the Watcher's single-file rename effect (spec
// §4.5): UPDATE files SET path = new WHERE path = old, propagating to
// the FTS mirror in the same transaction.
func (s *Store) RenamePath(ctx context.Context, oldPath, newPath string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var fileID int64
		err := tx.QueryRow(`SELECT id FROM files WHERE path = ?`, oldPath).Scan(&fileID)
		if err == sql.ErrNoRows {
			return NewError(KindNotFound, oldPath, fmt.Errorf("no file at path"))
		}
		if err != nil {
			return fmt.Errorf("looking up %s: %w", oldPath, err)
		}

		if _, err := tx.Exec(`UPDATE files SET path = ? WHERE id = ?`, newPath, fileID); err != nil {
			return fmt.Errorf("renaming %s to %s: %w", oldPath, newPath, err)
		}
		return updateFileMirrorPath(tx, fileID, newPath)
	})
}

// RenamePrefix rewrites every file whose path begins with oldPrefix to
// begin with newPrefix, in one transaction. The Watcher does not call
// it: it pairs renames of regular files only and applies them with
// RenamePath, so a directory rename is not rewritten by prefix.
func (s *Store) RenamePrefix(ctx context.Context, oldPrefix, newPrefix string) (int, error) {
	count := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT id, path FROM files WHERE path LIKE ?`, oldPrefix+"%")
		if err != nil {
			return fmt.Errorf("listing files under %s: %w", oldPrefix, err)
		}
		type hit struct {
			id   int64
			path string
		}
		var hits []hit
		for rows.Next() {
			var h hit
			if err := rows.Scan(&h.id, &h.path); err != nil {
				rows.Close()
				return err
			}
			hits = append(hits, h)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, h := range hits {
			newPath := newPrefix + h.path[len(oldPrefix):]
			if _, err := tx.Exec(`UPDATE files SET path = ? WHERE id = ?`, newPath, h.id); err != nil {
				return fmt.Errorf("renaming %s: %w", h.path, err)
			}
			if err := updateFileMirrorPath(tx, h.id, newPath); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// GetFileByPath returns the File row for an exact path.
func (s *Store) GetFileByPath(ctx context.Context, path string) (*File, error) {
	var f File
	err := s.db.QueryRowContext(ctx, `SELECT id, path, size, mtime, hash FROM files WHERE path = ?`, path).
		Scan(&f.ID, &f.Path, &f.Size, &f.MTime, &f.Hash)
	if err == sql.ErrNoRows {
		return nil, NewError(KindNotFound, path, fmt.Errorf("file not found"))
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", path, err)
	}
	return &f, nil
}

// ListAllPaths returns every indexed path, in id order.
func (s *Store) ListAllPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM files ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteFile removes a File row and, via ON DELETE CASCADE, every tag
// membership, attribute, link endpoint, collection membership and dirty
// mark that referenced it (spec §3's cascade invariant). The FtsRow
// (fts_files/fts_tags carry no foreign key) is deleted explicitly in the
// same transaction. Neither the Scanner nor the Watcher calls this on their own — the
// Open Question resolution in SPEC_FULL.md §D leaves vanished files
// addressable by path until an explicit deletion command exists; this
// method is the primitive such a command would use.
func (s *Store) DeleteFile(ctx context.Context, fileID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM files WHERE id = ?`, fileID)
		if err != nil {
			return fmt.Errorf("deleting file %d: %w", fileID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NewError(KindNotFound, "", fmt.Errorf("file %d not found", fileID))
		}
		return deleteFileMirror(tx, fileID)
	})
}

// Counts reports row counts across every domain table, backing the
// `status` verb (SPEC_FULL.md §C).
type Counts struct {
	Files       int
	Tags        int
	Attributes  int
	Links       int
	Collections int
	SavedViews  int
	DirtyMarks  int
}

// Status returns the domain counts and the applied schema version.
func (s *Store) Status(ctx context.Context) (Counts, int, error) {
	var c Counts
	version, err := currentSchemaVersion(ctx, s.db)
	if err != nil {
		return c, 0, err
	}

	queries := []struct {
		dst   *int
		table string
	}{
		{&c.Files, "files"},
		{&c.Tags, "tags"},
		{&c.Attributes, "attributes"},
		{&c.Links, "links"},
		{&c.Collections, "collections"},
		{&c.SavedViews, "saved_views"},
		{&c.DirtyMarks, "file_dirty_marks"},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", q.table)).Scan(q.dst); err != nil {
			return c, version, fmt.Errorf("counting %s: %w", q.table, err)
		}
	}
	return c, version, nil
}
