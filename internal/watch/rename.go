package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/marlin-fs/marlin/internal/store"
)

type renamePair struct {
	oldPath string
	newPath string
}

// pairRenames implements spec §4.5's rename-pairing: fsnotify on most
// platforms reports a rename as an unlinked old path and a freshly
// created new path with no platform-level correlation, so a Delete
// paired with a Create of a regular file of matching size within the
// same debounce window is treated as a rename rather than as a delete
// and an independent create. Directories are never paired. Unpaired
// events are returned unchanged.
func pairRenames(ctx context.Context, st *store.Store, events map[string]rawEvent) ([]renamePair, map[string]rawEvent) {
	var deletes, creates []rawEvent
	for _, e := range events {
		switch e.Kind {
		case KindDelete:
			deletes = append(deletes, e)
		case KindCreate:
			creates = append(creates, e)
		}
	}

	rest := make(map[string]rawEvent, len(events))
	for k, v := range events {
		rest[k] = v
	}

	var pairs []renamePair
	for _, del := range deletes {
		f, err := st.GetFileByPath(ctx, filepath.ToSlash(del.Path))
		if err != nil || !f.Size.Valid {
			continue
		}
		for i, cr := range creates {
			if cr.Path == "" {
				continue
			}
			info, err := os.Stat(cr.Path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if info.Size() != f.Size.Int64 {
				continue
			}
			pairs = append(pairs, renamePair{oldPath: del.Path, newPath: cr.Path})
			delete(rest, del.Path)
			delete(rest, cr.Path)
			creates[i].Path = ""
			break
		}
	}
	return pairs, rest
}
