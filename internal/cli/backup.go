package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var backupPrune int

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the live store, optionally pruning old backups",
	Long: `Backup copies the live store to <data_dir>/backups/backup_<UTC>.db
using SQLite's online backup API (spec §4.6). With --prune N, it then
deletes all but the N newest backups.`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().IntVar(&backupPrune, "prune", -1, "keep only the N newest backups after this one")
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	path, err := a.snapshot.CreateBackup(ctx, time.Now().UTC())
	if err != nil {
		return fail(err)
	}
	fmt.Printf("backup written: %s\n", path)

	if backupPrune >= 0 {
		kept, removed, err := a.snapshot.Prune(backupPrune)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("pruned: kept %d, removed %d\n", len(kept), len(removed))
	}
	return nil
}
