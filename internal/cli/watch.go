package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marlin-fs/marlin/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch PATHS...",
	Short: "Watch the given paths and keep the store live until signaled",
	Long: `Watch runs the filesystem watcher in the foreground (spec §4.5): it
catches the roots up with a full scan, then applies create/modify/
delete/rename events as they arrive, debounced per path. It exits 0 on
a clean shutdown (SIGINT/SIGTERM), draining its event queue to dirty
marks first if it can't flush in time.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	w, err := watch.New(a.st, sc, args, watch.Options{Debounce: a.cfg.Watch.Debounce()})
	if err != nil {
		return fail(err)
	}

	if err := w.Start(ctx); err != nil {
		return fail(err)
	}
	log.Printf("watching %d root(s)\n", len(args))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nshutting down...")

	if err := w.Stop(context.Background()); err != nil {
		return fail(err)
	}
	return nil
}
