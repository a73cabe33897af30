package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Attribute mirrors the Attribute entity of spec §3.
type Attribute struct {
	Key   string
	Value string
}

// SetAttribute upserts (file_id, key) -> value, per spec §4.3 "attr set".
// Open Question D.3 (SPEC_FULL.md): empty-string values are stored
// literally, not coerced to NULL, so the attribute stays distinguishable
// from "not set" and the operation stays idempotent on repeat.
func (s *Store) SetAttribute(ctx context.Context, fileID int64, key, value string) error {
	if key == "" {
		return NewError(KindInvalidArgument, "", fmt.Errorf("attribute key must not be empty"))
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO attributes (file_id, key, value) VALUES (?, ?, ?)
			ON CONFLICT(file_id, key) DO UPDATE SET value = excluded.value
		`, fileID, key, value)
		if err != nil {
			return fmt.Errorf("setting attribute %s on file %d: %w", key, fileID, err)
		}
		return rebuildFileMirror(tx, fileID)
	})
}

// RemoveAttribute deletes a single key from a file's attributes (SPEC_FULL.md §C).
func (s *Store) RemoveAttribute(ctx context.Context, fileID int64, key string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM attributes WHERE file_id = ? AND key = ?`, fileID, key)
		if err != nil {
			return fmt.Errorf("removing attribute %s from file %d: %w", key, fileID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NewError(KindNotFound, key, fmt.Errorf("attribute not set on file"))
		}
		return rebuildFileMirror(tx, fileID)
	})
}

// ListAttributes implements "attr ls <path>": all (key, value) pairs for
// a file, per spec §4.3.
func (s *Store) ListAttributes(ctx context.Context, fileID int64) ([]Attribute, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM attributes WHERE file_id = ? ORDER BY key`, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing attributes for file %d: %w", fileID, err)
	}
	defer rows.Close()

	var attrs []Attribute
	for rows.Next() {
		var a Attribute
		if err := rows.Scan(&a.Key, &a.Value); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}
