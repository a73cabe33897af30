package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveView implements "view save <name> <query>": stores the DSL text
// verbatim, per spec §4.3.
func (s *Store) SaveView(ctx context.Context, name, query string) error {
	if query == "" {
		return NewError(KindInvalidArgument, name, fmt.Errorf("view query must not be empty"))
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM saved_views WHERE name = ?`, name).Scan(&exists); err != nil {
			return fmt.Errorf("checking view name: %w", err)
		}
		if exists > 0 {
			return NewError(KindConflict, name, fmt.Errorf("view already exists"))
		}
		_, err := tx.Exec(`INSERT INTO saved_views (name, query) VALUES (?, ?)`, name, query)
		if err != nil {
			return fmt.Errorf("saving view %s: %w", name, err)
		}
		return nil
	})
}

// RemoveView implements the CRUD completion "view rm" (SPEC_FULL.md §C).
func (s *Store) RemoveView(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("removing view %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NewError(KindNotFound, name, fmt.Errorf("view not found"))
	}
	return nil
}

// SavedView is a named, persisted query (spec §3, §4.3).
type SavedView struct {
	Name  string
	Query string
}

// ListViews implements "view list".
func (s *Store) ListViews(ctx context.Context) ([]SavedView, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, query FROM saved_views ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing views: %w", err)
	}
	defer rows.Close()

	var views []SavedView
	for rows.Next() {
		var v SavedView
		if err := rows.Scan(&v.Name, &v.Query); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// GetView implements the lookup half of "view exec <name>": re-parsing
// and execution is the Query Engine's job (internal/query), this just
// returns the stored text.
func (s *Store) GetView(ctx context.Context, name string) (string, error) {
	var query string
	err := s.db.QueryRowContext(ctx, `SELECT query FROM saved_views WHERE name = ?`, name).Scan(&query)
	if err == sql.ErrNoRows {
		return "", NewError(KindNotFound, name, fmt.Errorf("view not found"))
	}
	if err != nil {
		return "", fmt.Errorf("looking up view %s: %w", name, err)
	}
	return query, nil
}
