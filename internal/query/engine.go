package query

import (
	"context"
	"fmt"

	"github.com/marlin-fs/marlin/internal/store"
)

// Engine parses and runs search queries against a Store's FTS mirror
// (spec §4.4).
type Engine struct {
	st *store.Store
}

// NewEngine wraps a Store for query execution.
func NewEngine(st *store.Store) *Engine {
	return &Engine{st: st}
}

// Search parses text, compiles it, and returns matching file paths in
// insertion order, per spec §4.4's default result-order policy.
func (e *Engine) Search(ctx context.Context, text string) ([]string, error) {
	node, err := Parse(text)
	if err != nil {
		return nil, store.NewError(store.KindInvalidArgument, "", err)
	}
	predicate, args := Compile(node)

	sqlText := fmt.Sprintf("SELECT f.path FROM files f WHERE %s ORDER BY f.id", predicate)
	rows, err := e.st.DB().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
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
