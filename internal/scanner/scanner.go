// Package scanner implements Marlin's full and dirty indexing modes
// (spec §4.2): walking roots, upserting File rows, and honoring
// ignore/symlink/hidden-file policy.
package scanner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/marlin-fs/marlin/internal/store"
)

// Mode selects between a full recursive walk and dirty-mark re-stat.
type Mode int

const (
	ModeFull Mode = iota
	ModeDirty
)

// Options configures a Scanner, grounded on the teacher's
// FileDiscovery's ignore/pattern compilation step.
type Options struct {
	IgnoreGlobs   []string
	FollowSymlink bool
	IndexHidden   bool
}

// Summary is the scan result spec §4.2 requires: (indexed, updated,
// skipped, errored).
type Summary struct {
	Indexed int
	Updated int
	Skipped int
	Errored int
}

// Scanner walks filesystem roots and upserts File rows into a Store.
type Scanner struct {
	st     *store.Store
	ignore []string
	follow bool
	hidden bool
}

// New validates Options.IgnoreGlobs and returns a ready Scanner. Ignore
// patterns support doublestar's "**" recursive matching (e.g.
// "**/.git/**", "**/node_modules/**").
func New(st *store.Store, opts Options) (*Scanner, error) {
	s := &Scanner{st: st, follow: opts.FollowSymlink, hidden: opts.IndexHidden}
	for _, pattern := range opts.IgnoreGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
		s.ignore = append(s.ignore, pattern)
	}
	return s, nil
}

// Scan walks roots (mode full) or re-stats dirty-marked paths (mode
// dirty) and upserts into the Store.
func (s *Scanner) Scan(ctx context.Context, roots []string, mode Mode) (Summary, error) {
	if mode == ModeDirty {
		return s.scanDirty(ctx)
	}
	return s.scanFull(ctx, roots)
}

func (s *Scanner) scanFull(ctx context.Context, roots []string) (Summary, error) {
	var sum Summary
	visited := newInodeSet()

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return sum, fmt.Errorf("resolving root %s: %w", root, err)
		}
		if err := s.walkRoot(ctx, absRoot, absRoot, visited, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (s *Scanner) walkRoot(ctx context.Context, root, dir string, visited *inodeSet, sum *Summary) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("warning: skipping unreadable directory %s: %v", dir, err)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if !utf8Valid(name) {
			log.Printf("warning: skipping path with invalid encoding: %s", filepath.Join(dir, name))
			sum.Skipped++
			continue
		}
		if !s.hidden && isHidden(name) {
			continue
		}

		full := filepath.Join(dir, name)
		relForIgnore := toSlash(full)
		if s.isIgnored(relForIgnore) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Printf("warning: stat failed for %s: %v", full, err)
			sum.Errored++
			continue
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, ok, err := s.resolveSymlink(root, full)
			if err != nil {
				log.Printf("warning: symlink resolution failed for %s: %v", full, err)
				sum.Errored++
				continue
			}
			if !ok {
				continue
			}
			targetInfo, err := os.Stat(target)
			if err != nil {
				sum.Errored++
				continue
			}
			if targetInfo.IsDir() {
				if visited.seenDir(targetInfo) {
					continue
				}
				if err := s.walkRoot(ctx, root, target, visited, sum); err != nil {
					return err
				}
				continue
			}
			if err := s.upsert(ctx, target, targetInfo, sum); err != nil {
				return err
			}
			continue
		}

		if entry.IsDir() {
			if visited.seenDir(info) {
				continue
			}
			if err := s.walkRoot(ctx, root, full, visited, sum); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}
		if err := s.upsert(ctx, full, info, sum); err != nil {
			return err
		}
	}
	return nil
}

// upsert records one file's stat into the store. Per-file failures are
// logged and counted (spec §4.2's failure model); a store-level failure
// (busy, corrupt, IO, migration) aborts the walk entirely, since those
// indicate the store itself can no longer accept writes rather than a
// problem with this one file.
func (s *Scanner) upsert(ctx context.Context, path string, info os.FileInfo, sum *Summary) error {
	canonical := toSlash(path)
	result, _, err := s.st.UpsertFile(ctx, canonical, info.Size(), info.ModTime().Unix())
	if err != nil {
		if kind, ok := store.KindOf(err); ok && isStoreLevelFailure(kind) {
			return fmt.Errorf("store error upserting %s: %w", canonical, err)
		}
		log.Printf("warning: upsert failed for %s: %v", canonical, err)
		sum.Errored++
		return nil
	}
	switch result {
	case store.UpsertInserted:
		sum.Indexed++
	case store.UpsertUpdated:
		sum.Updated++
	case store.UpsertUnchanged:
		sum.Skipped++
	}
	return nil
}

func isStoreLevelFailure(kind store.Kind) bool {
	switch kind {
	case store.KindStoreBusy, store.KindStoreCorrupt, store.KindIO, store.KindMigrationFailed:
		return true
	}
	return false
}

// resolveSymlink implements spec's "followed only if the target is
// under a configured root" rule.
func (s *Scanner) resolveSymlink(root, path string) (string, bool, error) {
	if !s.follow {
		return "", false, nil
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false, err
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false, nil
	}
	return target, true, nil
}

func (s *Scanner) isIgnored(path string) bool {
	trimmed := strings.TrimPrefix(path, "/")
	for _, pattern := range s.ignore {
		if ok, _ := doublestar.Match(pattern, trimmed); ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func toSlash(path string) string {
	return filepath.ToSlash(path)
}

func utf8Valid(s string) bool {
	return utf8.ValidString(s)
}
