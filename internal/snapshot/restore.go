package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/marlin-fs/marlin/internal/store"
)

// Restore atomically replaces the live store file with the snapshot at
// backupPath (spec §4.6). It only proceeds if the snapshot's schema
// version is no newer than this build's supported version — an older
// snapshot is accepted and brought forward by the normal migration path
// on reopen — and if the staged candidate passes an integrity check
// before it is swapped in. preMigrate is threaded through to the
// reopened Store the same way it is on Open, in case the restored file
// still needs migrating.
func Restore(ctx context.Context, st *store.Store, backupPath string, preMigrate func(string) error) error {
	version, err := store.ReadSchemaVersionAt(ctx, backupPath)
	if err != nil {
		return err
	}
	if version > store.SupportedSchemaVersion() {
		return store.NewError(store.KindMigrationFailed, backupPath,
			fmt.Errorf("snapshot schema version %d is newer than supported version %d", version, store.SupportedSchemaVersion()))
	}

	livePath := st.Path()
	tmpPath := livePath + ".restoring"
	if err := copyFile(backupPath, tmpPath); err != nil {
		return fmt.Errorf("staging restore candidate: %w", err)
	}

	if err := store.CheckIntegrityAt(ctx, tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := st.Close(); err != nil {
		os.Remove(tmpPath)
		return store.NewError(store.KindIO, livePath, fmt.Errorf("closing store for restore: %w", err))
	}

	if err := os.Rename(tmpPath, livePath); err != nil {
		return store.NewError(store.KindIO, livePath, fmt.Errorf("swapping in restored store: %w", err))
	}

	return st.Reopen(ctx, preMigrate)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
