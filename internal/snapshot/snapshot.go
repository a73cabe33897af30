// Package snapshot implements Marlin's backup/restore engine (spec
// §4.6): consistent online backups of the live store file, retention
// pruning, and schema-version-gated restore.
package snapshot

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/marlin-fs/marlin/internal/store"
)

const backupTimeLayout = "2006-01-02_15-04-05"

// Engine creates, prunes, and restores backups of one Store's file.
type Engine struct {
	st  *store.Store
	dir string
}

// New returns an Engine that writes backups under dir.
func New(st *store.Store, dir string) *Engine {
	return &Engine{st: st, dir: dir}
}

// CreateBackup copies the live store file to
// <dir>/backup_<UTC-YYYY-MM-DD_HH-MM-SS>.db using SQLite's online
// backup API, which produces a consistent snapshot even while writers
// are active (spec §4.6). The timestamp is supplied by the caller
// (typically time.Now().UTC()) so this stays deterministic and testable.
func (e *Engine) CreateBackup(ctx context.Context, at time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	// correlationID ties this backup's start/finish log lines together,
	// since CreateBackup can run concurrently from autoBackup calls on
	// overlapping commands.
	correlationID := uuid.NewString()
	name := fmt.Sprintf("backup_%s.db", at.UTC().Format(backupTimeLayout))
	destPath := filepath.Join(e.dir, name)

	log.Printf("backup %s: starting -> %s", correlationID, destPath)
	if err := e.backupTo(ctx, destPath); err != nil {
		log.Printf("backup %s: failed: %v", correlationID, err)
		return "", err
	}
	log.Printf("backup %s: complete", correlationID)
	return destPath, nil
}

// backupTo drives the mattn/go-sqlite3 online-backup API: open the
// destination as its own SQLite connection, then copy every page from
// the live connection across in one step.
func (e *Engine) backupTo(ctx context.Context, destPath string) error {
	destDB, err := openRawSQLite(ctx, destPath)
	if err != nil {
		return err
	}
	defer destDB.Close()

	srcConn, err := rawConn(ctx, e.st.DB())
	if err != nil {
		return err
	}
	defer srcConn.release()

	destConn, err := rawConn(ctx, destDB)
	if err != nil {
		return err
	}
	defer destConn.release()

	backup, err := destConn.sqliteConn.Backup("main", srcConn.sqliteConn, "main")
	if err != nil {
		return store.NewError(store.KindIO, destPath, fmt.Errorf("starting backup: %w", err))
	}

	done, err := backup.Step(-1)
	if err != nil {
		backup.Finish()
		return store.NewError(store.KindIO, destPath, fmt.Errorf("copying pages: %w", err))
	}
	if !done {
		backup.Finish()
		return store.NewError(store.KindIO, destPath, fmt.Errorf("backup did not complete in one step"))
	}
	if err := backup.Finish(); err != nil {
		return store.NewError(store.KindIO, destPath, fmt.Errorf("finishing backup: %w", err))
	}
	return nil
}

// Prune lists existing backups, sorts by embedded timestamp descending,
// retains the newest keepN, and deletes the rest.
func (e *Engine) Prune(keepN int) (kept, removed []string, err error) {
	backups, err := e.listBackups()
	if err != nil {
		return nil, nil, err
	}
	if keepN < 0 {
		keepN = 0
	}
	if keepN >= len(backups) {
		for _, b := range backups {
			kept = append(kept, b.path)
		}
		return kept, nil, nil
	}

	for i, b := range backups {
		if i < keepN {
			kept = append(kept, b.path)
			continue
		}
		if err := os.Remove(b.path); err != nil {
			return kept, removed, fmt.Errorf("removing backup %s: %w", b.path, err)
		}
		removed = append(removed, b.path)
	}
	return kept, removed, nil
}

type backupFile struct {
	path string
	at   time.Time
}

func (e *Engine) listBackups() ([]backupFile, error) {
	entries, err := os.ReadDir(e.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing backup dir: %w", err)
	}

	var backups []backupFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		at, ok := parseBackupName(entry.Name())
		if !ok {
			continue
		}
		backups = append(backups, backupFile{path: filepath.Join(e.dir, entry.Name()), at: at})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].at.After(backups[j].at) })
	return backups, nil
}

func parseBackupName(name string) (time.Time, bool) {
	const prefix, suffix = "backup_", ".db"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	at, err := time.Parse(backupTimeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// rawSQLiteConn wraps a *sql.Conn long enough to reach its underlying
// *sqlite3.SQLiteConn via the database/sql driver escape hatch.
type rawSQLiteConn struct {
	conn       interface{ Close() error }
	sqliteConn *sqlite3.SQLiteConn
}

func (r *rawSQLiteConn) release() error { return r.conn.Close() }
