package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marlin-fs/marlin/internal/marlinconfig"
	"github.com/marlin-fs/marlin/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store at the configured data directory",
	Long: `Init creates the data directory and an empty store at its configured
path (MARLIN_DB_PATH, or <data_dir>/index.db otherwise). It is the only
mutating command that does not take a safety snapshot first, since
there is nothing yet to snapshot.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := marlinconfig.Load()
	if err != nil {
		return fail(fmt.Errorf("loading configuration: %w", err))
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fail(fmt.Errorf("creating data directory: %w", err))
	}

	st, err := store.Open(ctx, cfg.DBPath(), nil)
	if err != nil {
		return fail(err)
	}
	defer st.Close()

	if err := st.CheckIntegrity(ctx); err != nil {
		return fail(err)
	}

	fmt.Printf("initialized store at %s\n", cfg.DBPath())
	return nil
}
