// Package store implements Marlin's embedded relational metadata store: the
// files/tags/attributes/links/collections/views schema, the FTS mirror
// that unifies them into one searchable surface, and the migration runner
// that keeps both in lockstep across versions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a single SQLite connection opened against one store file,
// matching spec §4.1's single-writer discipline: every mutating method
// below funnels through this *sql.DB, while WAL allows concurrent
// readers.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the store file at path, applies any
// pending migrations, and returns a ready-to-use Store. Before a
// migration runs on an existing store, the caller-supplied snapshot
// function is invoked to take a safety backup, per spec §4.1 ("Before
// any migration, the Snapshot Engine is invoked").
func Open(ctx context.Context, path string, preMigrate func(storePath string) error) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewError(KindIO, path, fmt.Errorf("opening store: %w", err))
	}
	db.SetMaxOpenConns(1) // single-writer discipline (§4.1, §5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewError(KindIO, path, fmt.Errorf("connecting to store: %w", err))
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx, preMigrate); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reopen closes the current connection and re-opens the same path,
// running any pending migrations. The Snapshot Engine uses this around
// an atomic file replacement during restore (spec §4.6): the live file
// must not be held open while it is swapped out from under the process.
func (s *Store) Reopen(ctx context.Context, preMigrate func(storePath string) error) error {
	if err := s.db.Close(); err != nil {
		return NewError(KindIO, s.path, fmt.Errorf("closing store before reopen: %w", err))
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", s.path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return NewError(KindIO, s.path, fmt.Errorf("reopening store: %w", err))
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return NewError(KindIO, s.path, fmt.Errorf("reconnecting to store: %w", err))
	}

	s.db = db
	return s.migrate(ctx, preMigrate)
}

// Path returns the filesystem path of the live store file.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying *sql.DB for packages (scanner, watcher, query)
// that need to run their own statements inside a transaction begun here.
func (s *Store) DB() *sql.DB { return s.db }

// CheckIntegrity runs SQLite's built-in integrity check and classifies a
// failure as KindStoreCorrupt, grounding spec §7's StoreCorrupt kind in a
// concrete trigger: PRAGMA integrity_check.
func (s *Store) CheckIntegrity(ctx context.Context) error {
	var result string
	if err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return NewError(KindIO, s.path, err)
	}
	if !strings.EqualFold(result, "ok") {
		return NewError(KindStoreCorrupt, s.path, fmt.Errorf("integrity check failed: %s", result))
	}
	return nil
}

// CheckIntegrityAt runs the same check as CheckIntegrity against a store
// file that isn't open as a *Store, opening a short-lived read-only
// connection for it. The Snapshot Engine uses this to vet a restore
// candidate before swapping it into place (spec §4.6), mirroring
// ReadSchemaVersionAt's short-lived-connection pattern.
func CheckIntegrityAt(ctx context.Context, path string) error {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return NewError(KindIO, path, fmt.Errorf("opening candidate store: %w", err))
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return NewError(KindIO, path, err)
	}
	if !strings.EqualFold(result, "ok") {
		return NewError(KindStoreCorrupt, path, fmt.Errorf("integrity check failed: %s", result))
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyBusy(err, s.path)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return classifyBusy(err, s.path)
	}
	return nil
}

// classifyBusy recognizes SQLite's lock-contention error text and maps it
// to KindStoreBusy; every other low-level failure is wrapped as KindIO.
func classifyBusy(err error, path string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy") {
		return NewError(KindStoreBusy, path, err)
	}
	return NewError(KindIO, path, err)
}

// now returns the current unix second, used for dirty-mark timestamps.
func now() int64 { return time.Now().Unix() }
