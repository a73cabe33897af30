package store

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
)

// ResolveGlob compiles pattern as a shell-style glob (`*`, `?`, `**` for
// arbitrary depth, with '/' as the separator) and returns every indexed
// File whose path matches it. CLI commands that take a glob argument
// (tag add/rm, attr set/rm, coll add) use this
// to turn a pattern into the concrete files it should act on.
func (s *Store) ResolveGlob(ctx context.Context, pattern string) ([]File, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, NewError(KindInvalidArgument, pattern, fmt.Errorf("invalid glob: %w", err))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, path, size, mtime, hash FROM files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var matches []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Path, &f.Size, &f.MTime, &f.Hash); err != nil {
			return nil, err
		}
		if g.Match(f.Path) {
			matches = append(matches, f)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, NewError(KindNotFound, pattern, fmt.Errorf("no files match pattern"))
	}
	return matches, nil
}
