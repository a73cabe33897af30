package scanner

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/marlin-fs/marlin/internal/store"
)

// scanDirty implements spec §4.2's dirty mode: read FileDirtyMark, for
// each marked path re-stat and upsert, clearing the mark on success.
// Files whose path no longer exists are counted as errored and their
// mark is left in place; removal policy is caller-driven (SPEC_FULL.md
// §D's tombstone resolution), not the Scanner's to decide.
func (s *Scanner) scanDirty(ctx context.Context) (Summary, error) {
	var sum Summary

	entries, err := s.st.ListDirty(ctx)
	if err != nil {
		return sum, err
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		info, err := os.Lstat(entry.Path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("dirty file vanished: %s", entry.Path)
				sum.Errored++
				continue
			}
			log.Printf("warning: stat failed for dirty file %s: %v", entry.Path, err)
			sum.Errored++
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			info, err = os.Stat(entry.Path)
			if err != nil {
				sum.Errored++
				continue
			}
		}

		result, _, err := s.st.UpsertFile(ctx, entry.Path, info.Size(), info.ModTime().Unix())
		if err != nil {
			if kind, ok := store.KindOf(err); ok && isStoreLevelFailure(kind) {
				return sum, fmt.Errorf("store error upserting dirty file %s: %w", entry.Path, err)
			}
			log.Printf("warning: upsert failed for dirty file %s: %v", entry.Path, err)
			sum.Errored++
			continue
		}
		switch result {
		case store.UpsertInserted:
			sum.Indexed++
		case store.UpsertUpdated:
			sum.Updated++
		case store.UpsertUnchanged:
			sum.Skipped++
		}

		if err := s.st.ClearDirty(ctx, entry.FileID); err != nil {
			log.Printf("warning: failed to clear dirty mark for %s: %v", entry.Path, err)
		}
	}
	return sum, nil
}
