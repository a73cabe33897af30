package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marlin-fs/marlin/internal/scanner"
)

var (
	scanDirty bool
	scanQuiet bool
)

var scanCmd = &cobra.Command{
	Use:   "scan PATHS...",
	Short: "Index or re-index the given paths",
	Long: `Scan walks the given root paths and upserts every regular file it finds
into the store (spec §4.2). With --dirty, it instead re-stats only the
paths the watcher has marked dirty since the last scan, ignoring the
path arguments.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanDirty, "dirty", false, "re-stat dirty-marked paths instead of walking PATHS")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "disable the progress spinner")
}

func runScan(cmd *cobra.Command, args []string) error {
	if !scanDirty && len(args) == 0 {
		return fail(fmt.Errorf("scan requires at least one path, or --dirty"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.close()

	if err := a.autoBackup(ctx); err != nil {
		return fail(err)
	}

	sc, err := a.scanner()
	if err != nil {
		return fail(err)
	}

	mode := scanner.ModeFull
	if scanDirty {
		mode = scanner.ModeDirty
	}

	desc := "scanning"
	if scanDirty {
		desc = "re-stating dirty files"
	}
	progress := newScanProgress(scanQuiet, desc)
	sum, err := sc.Scan(ctx, args, mode)
	progress.Finish(sum)
	if err != nil {
		return fail(err)
	}
	if sum.Indexed+sum.Updated+sum.Skipped == 0 && sum.Errored > 0 {
		return fail(fmt.Errorf("scan: all %d items failed", sum.Errored))
	}
	return nil
}
