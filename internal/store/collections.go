package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateCollection implements "coll create <name>" (spec §4.3): name
// uniqueness enforced by the table's UNIQUE constraint.
func (s *Store) CreateCollection(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM collections WHERE name = ?`, name).Scan(&exists); err != nil {
			return fmt.Errorf("checking collection name: %w", err)
		}
		if exists > 0 {
			return NewError(KindConflict, name, fmt.Errorf("collection already exists"))
		}
		res, err := tx.Exec(`INSERT INTO collections (name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("creating collection %s: %w", name, err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// RemoveCollection implements the CRUD completion "coll rm" (SPEC_FULL.md §C).
func (s *Store) RemoveCollection(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("removing collection %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewError(KindNotFound, name, fmt.Errorf("collection not found"))
	}
	return nil
}

// AddToCollection implements "coll add <name> <glob>": membership for one
// resolved file.
func (s *Store) AddToCollection(ctx context.Context, collectionID, fileID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collection_files (collection_id, file_id) VALUES (?, ?)`,
		collectionID, fileID,
	)
	if err != nil {
		return fmt.Errorf("adding file %d to collection %d: %w", fileID, collectionID, err)
	}
	return nil
}

// RemoveFromCollection implements the CRUD completion "coll rm-file"
// (SPEC_FULL.md §C): drop one file from a collection without deleting
// the collection itself.
func (s *Store) RemoveFromCollection(ctx context.Context, collectionID, fileID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM collection_files WHERE collection_id = ? AND file_id = ?`,
		collectionID, fileID,
	)
	if err != nil {
		return fmt.Errorf("removing file %d from collection %d: %w", fileID, collectionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewError(KindNotFound, "", fmt.Errorf("file not a member of collection"))
	}
	return nil
}

// ListCollectionFiles implements "coll list <name>": member paths.
func (s *Store) ListCollectionFiles(ctx context.Context, collectionID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.path FROM collection_files cf
		JOIN files f ON f.id = cf.file_id
		WHERE cf.collection_id = ?
		ORDER BY f.id
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("listing collection %d: %w", collectionID, err)
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

// GetCollectionByName resolves a collection name to its id.
func (s *Store) GetCollectionByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM collections WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, NewError(KindNotFound, name, fmt.Errorf("collection not found"))
	}
	if err != nil {
		return 0, fmt.Errorf("looking up collection %s: %w", name, err)
	}
	return id, nil
}
