package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/marlin-fs/marlin/internal/store"
)

// openRawSQLite opens a fresh, dedicated connection to path for use as
// the backup destination.
func openRawSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, store.NewError(store.KindIO, path, fmt.Errorf("opening backup destination: %w", err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, store.NewError(store.KindIO, path, fmt.Errorf("connecting to backup destination: %w", err))
	}
	return db, nil
}

// rawConn reaches through database/sql's driver escape hatch to the
// underlying *sqlite3.SQLiteConn, which the online-backup API operates
// on directly. The returned *sql.Conn must stay open (not returned to
// the pool) until the backup finishes; release() does that afterward.
func rawConn(ctx context.Context, db *sql.DB) (*rawSQLiteConn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}

	var sc *sqlite3.SQLiteConn
	err = conn.Raw(func(driverConn interface{}) error {
		underlying, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("driver connection is not *sqlite3.SQLiteConn")
		}
		sc = underlying
		return nil
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("extracting raw sqlite connection: %w", err)
	}

	return &rawSQLiteConn{conn: conn, sqliteConn: sc}, nil
}
