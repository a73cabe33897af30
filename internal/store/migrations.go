package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one forward-only step in the schema's version history.
// Each migration is applied inside its own transaction; success records
// its number in schema_version, failure aborts the transaction and
// leaves the store untouched (spec §4.1).
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

// migrations is the monotonically numbered sequence applied in order.
// Add new entries at the end; never renumber or remove one that has
// shipped.
var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		apply: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
				version     INTEGER PRIMARY KEY,
				applied_on  INTEGER NOT NULL
			)`); err != nil {
				return fmt.Errorf("creating schema_version table: %w", err)
			}
			return createSchema(tx)
		},
	},
	{
		version: 2,
		name:    "dirty mark batch ids",
		apply: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE file_dirty_marks ADD COLUMN batch_id TEXT`); err != nil {
				return fmt.Errorf("adding batch_id to file_dirty_marks: %w", err)
			}
			return nil
		},
	},
	{
		// Fixes a false-positive tag match: fts_files' shared tokenizer
		// split tag paths like "project/frontend" on '/', and a phrase
		// query's word-adjacency requirement could spuriously match an
		// unrelated tag path whose words happened to land next to each
		// other in the sorted tags_text blob after another tag's tokens.
		// Moving tags_text into its own table with tokenchars '/' keeps
		// each full tag path one atomic token, so TagTerm can match it
		// exactly instead of via adjacency.
		version: 3,
		name:    "split tag mirror into its own FTS5 table",
		apply: func(tx *sql.Tx) error {
			if _, err := tx.Exec(createFTSTagsTable); err != nil {
				return fmt.Errorf("creating fts_tags table: %w", err)
			}
			if _, err := tx.Exec(`INSERT INTO fts_tags (file_id, tags_text) SELECT file_id, tags_text FROM fts_files`); err != nil {
				return fmt.Errorf("copying tags_text into fts_tags: %w", err)
			}
			if _, err := tx.Exec(createFTSFilesTableNoTags); err != nil {
				return fmt.Errorf("creating fts_files_new table: %w", err)
			}
			if _, err := tx.Exec(`INSERT INTO fts_files_new (file_id, path, attrs_text) SELECT file_id, path, attrs_text FROM fts_files`); err != nil {
				return fmt.Errorf("copying path/attrs_text into fts_files_new: %w", err)
			}
			if _, err := tx.Exec(`DROP TABLE fts_files`); err != nil {
				return fmt.Errorf("dropping old fts_files: %w", err)
			}
			if _, err := tx.Exec(`ALTER TABLE fts_files_new RENAME TO fts_files`); err != nil {
				return fmt.Errorf("renaming fts_files_new to fts_files: %w", err)
			}
			return nil
		},
	},
}

// migrate determines the highest applied schema_version and runs every
// migration after it, in order, each in its own transaction. Before the
// first migration on an existing store file, preMigrate is invoked if
// non-nil; a fresh store being created for the first time has nothing
// to back up yet. Every caller in this repository passes nil.
func (s *Store) migrate(ctx context.Context, preMigrate func(storePath string) error) error {
	current, err := currentSchemaVersion(ctx, s.db)
	if err != nil {
		return err
	}

	pending := pendingMigrations(current)
	if len(pending) == 0 {
		return nil
	}

	if current > 0 && preMigrate != nil {
		if err := preMigrate(s.path); err != nil {
			return NewError(KindMigrationFailed, s.path, fmt.Errorf("pre-migration snapshot failed: %w", err))
		}
	}

	for _, m := range pending {
		if err := s.applyMigration(ctx, m); err != nil {
			return NewError(KindMigrationFailed, s.path, fmt.Errorf("migration %d (%s): %w", m.version, m.name, err))
		}
	}
	return nil
}

func pendingMigrations(current int) []migration {
	var pending []migration
	for _, m := range migrations {
		if m.version > current {
			pending = append(pending, m)
		}
	}
	return pending
}

func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.apply(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_version (version, applied_on) VALUES (?, ?)`,
		m.version, now(),
	); err != nil {
		return fmt.Errorf("recording schema_version %d: %w", m.version, err)
	}
	return tx.Commit()
}

// currentSchemaVersion returns 0 for a brand-new database (no
// schema_version table yet) without treating that as an error.
func currentSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}

	var version int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema_version: %w", err)
	}
	return version, nil
}

// SupportedSchemaVersion is the highest version this build knows how to
// apply. snapshot.Restore compares a candidate file's version against
// this before swapping it in (spec §4.6).
func SupportedSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// ReadSchemaVersionAt opens path just long enough to read its
// schema_version table, without running migrations or holding the
// connection open. Used by the Snapshot Engine to gate a restore
// candidate before swapping it into place.
func ReadSchemaVersionAt(ctx context.Context, path string) (int, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return 0, NewError(KindIO, path, fmt.Errorf("opening candidate store: %w", err))
	}
	defer db.Close()

	version, err := currentSchemaVersion(ctx, db)
	if err != nil {
		return 0, NewError(KindStoreCorrupt, path, err)
	}
	return version, nil
}
