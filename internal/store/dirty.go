package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MarkDirty inserts a FileDirtyMark for fileID, recording that the
// Watcher observed a change needing re-stat (spec §3, §4.5). Marking an
// already-dirty file is a no-op that refreshes marked_at.
func (s *Store) MarkDirty(ctx context.Context, fileID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_dirty_marks (file_id, marked_at) VALUES (?, ?)
		ON CONFLICT(file_id) DO UPDATE SET marked_at = excluded.marked_at
	`, fileID, now())
	if err != nil {
		return fmt.Errorf("marking file %d dirty: %w", fileID, err)
	}
	return nil
}

// ClearDirty removes a FileDirtyMark after a successful re-stat, per
// spec §4.2 "Dirty mode".
func (s *Store) ClearDirty(ctx context.Context, fileID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM file_dirty_marks WHERE file_id = ?`, fileID)
	if err != nil {
		return fmt.Errorf("clearing dirty mark for file %d: %w", fileID, err)
	}
	return nil
}

// DirtyEntry pairs a dirty file with its path, so the Scanner doesn't
// need a second round trip to resolve what to re-stat. BatchID is set
// when the mark was produced by MarkDirtyByPrefix (every file in one
// overflow event shares a batch), and empty for a single MarkDirty call.
type DirtyEntry struct {
	FileID  int64
	Path    string
	BatchID string
}

// ListDirty returns every currently dirty file, for "scan --dirty" to
// consume.
func (s *Store) ListDirty(ctx context.Context) ([]DirtyEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.path, COALESCE(d.batch_id, '') FROM file_dirty_marks d
		JOIN files f ON f.id = d.file_id
		ORDER BY d.marked_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing dirty files: %w", err)
	}
	defer rows.Close()

	var out []DirtyEntry
	for rows.Next() {
		var e DirtyEntry
		if err := rows.Scan(&e.FileID, &e.Path, &e.BatchID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DirtyCount returns the number of dirty-marked files.
func (s *Store) DirtyCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_dirty_marks`).Scan(&n)
	return n, err
}

// MarkDirtyByPrefix marks every indexed file under prefix dirty in one
// statement, tagging the whole set with a fresh batch id so a later
// reader can tell which dirty marks came from the same overflow event.
// The Watcher uses this for its queue-cap overflow path (spec §4.5:
// "overflow downgrades to a dirty root mark"), where re-stating one
// path at a time would defeat the point of shedding load.
func (s *Store) MarkDirtyByPrefix(ctx context.Context, prefix string) (int, error) {
	batchID := uuid.NewString()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO file_dirty_marks (file_id, marked_at, batch_id)
		SELECT id, ?, ? FROM files WHERE path LIKE ?
		ON CONFLICT(file_id) DO UPDATE SET marked_at = excluded.marked_at, batch_id = excluded.batch_id
	`, now(), batchID, prefix+"%")
	if err != nil {
		return 0, fmt.Errorf("marking prefix %s dirty: %w", prefix, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
