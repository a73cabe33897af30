package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Direction selects which end of a Link "link list" should traverse,
// per spec §4.3.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
	DirectionBoth
)

// LinkNeighbor is one result row of "link list"/"link backlinks": the
// neighboring path and the edge's type.
type LinkNeighbor struct {
	Path string
	Type string
}

// AddLink implements "link add <src> <dst> [--type T]", enforcing the
// (src, dst, type) uniqueness key. Self-links are permitted (Open
// Question D.2, SPEC_FULL.md §D): the caller decides whether a
// self-reference is meaningful, the store does not reject it.
func (s *Store) AddLink(ctx context.Context, srcID, dstID int64, linkType string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM links WHERE src_file_id = ? AND dst_file_id = ? AND type = ?`,
			srcID, dstID, linkType,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking existing link: %w", err)
		}
		if exists > 0 {
			return NewError(KindConflict, "", fmt.Errorf("link already exists"))
		}
		_, err = tx.Exec(
			`INSERT INTO links (src_file_id, dst_file_id, type) VALUES (?, ?, ?)`,
			srcID, dstID, linkType,
		)
		if err != nil {
			return fmt.Errorf("adding link: %w", err)
		}
		return nil
	})
}

// RemoveLink implements "link rm <src> <dst> [--type T]".
func (s *Store) RemoveLink(ctx context.Context, srcID, dstID int64, linkType string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`DELETE FROM links WHERE src_file_id = ? AND dst_file_id = ? AND type = ?`,
			srcID, dstID, linkType,
		)
		if err != nil {
			return fmt.Errorf("removing link: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NewError(KindNotFound, "", fmt.Errorf("link not found"))
		}
		return nil
	})
}

// ListLinks implements "link list <path> [--direction out|in|both]" and,
// via DirectionIn, "link backlinks <path>" (spec §4.3).
func (s *Store) ListLinks(ctx context.Context, fileID int64, dir Direction) ([]LinkNeighbor, error) {
	var query string
	switch dir {
	case DirectionOut:
		query = `SELECT f.path, l.type FROM links l JOIN files f ON f.id = l.dst_file_id WHERE l.src_file_id = ?`
	case DirectionIn:
		query = `SELECT f.path, l.type FROM links l JOIN files f ON f.id = l.src_file_id WHERE l.dst_file_id = ?`
	case DirectionBoth:
		query = `
			SELECT f.path, l.type FROM links l JOIN files f ON f.id = l.dst_file_id WHERE l.src_file_id = ?
			UNION ALL
			SELECT f.path, l.type FROM links l JOIN files f ON f.id = l.src_file_id WHERE l.dst_file_id = ?
		`
	}

	var rows *sql.Rows
	var err error
	if dir == DirectionBoth {
		rows, err = s.db.QueryContext(ctx, query, fileID, fileID)
	} else {
		rows, err = s.db.QueryContext(ctx, query, fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	var out []LinkNeighbor
	for rows.Next() {
		var n LinkNeighbor
		if err := rows.Scan(&n.Path, &n.Type); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
