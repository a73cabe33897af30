package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marlin-fs/marlin/internal/snapshot"
)

var restoreCmd = &cobra.Command{
	Use:   "restore SNAPSHOT_PATH",
	Short: "Replace the live store with SNAPSHOT_PATH",
	Long: `Restore atomically swaps the live store file for the snapshot at
SNAPSHOT_PATH (spec §4.6), after gating on the snapshot's schema
version not being newer than this build supports. A safety snapshot of
the current live store is taken first, so the replace itself can be
undone with another restore.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}

	if err := snapshot.Restore(ctx, a.st, args[0], nil); err != nil {
		return fail(err)
	}
	fmt.Printf("restored from %s\n", args[0])
	return nil
}
