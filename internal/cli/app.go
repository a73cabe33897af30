package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/marlin-fs/marlin/internal/marlinconfig"
	"github.com/marlin-fs/marlin/internal/query"
	"github.com/marlin-fs/marlin/internal/scanner"
	"github.com/marlin-fs/marlin/internal/snapshot"
	"github.com/marlin-fs/marlin/internal/store"
)

// app bundles the objects every command but `init` needs: the loaded
// configuration and an opened Store, plus the query/scan/snapshot
// engines built on top of it.
type app struct {
	cfg      *marlinconfig.Config
	st       *store.Store
	engine   *query.Engine
	snapshot *snapshot.Engine
}

// openApp loads configuration and opens the live store. Commands call
// this in their RunE rather than PersistentPreRunE so that `init` (which
// must create the store rather than require it) can skip it.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := marlinconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	st, err := store.Open(ctx, cfg.DBPath(), nil)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		st:       st,
		engine:   query.NewEngine(st),
		snapshot: snapshot.New(st, cfg.BackupDir()),
	}, nil
}

func (a *app) close() {
	if err := a.st.Close(); err != nil {
		log.Printf("warning: closing store: %v", err)
	}
}

func (a *app) scanner() (*scanner.Scanner, error) {
	return scanner.New(a.st, scanner.Options{
		IgnoreGlobs:   a.cfg.Scan.Ignore,
		FollowSymlink: a.cfg.Scan.FollowSymlink,
		IndexHidden:   a.cfg.Scan.IndexHidden,
	})
}

// autoBackup takes a safety snapshot before a mutating command runs
// (spec §4.6): a failed snapshot aborts the command rather than letting
// it proceed unprotected.
func (a *app) autoBackup(ctx context.Context) error {
	_, err := a.snapshot.CreateBackup(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("safety snapshot failed, aborting: %w", err)
	}
	return nil
}

// outputError renders err per spec §7: a JSON error object in
// --format=json mode, a plain message to stderr otherwise. It never
// exits the process itself; callers surface the nonzero code through
// cobra's error return.
func outputError(err error) {
	if err == nil {
		return
	}
	if jsonOutput {
		kind := "Unknown"
		if k, ok := store.KindOf(err); ok {
			kind = k.String()
		}
		obj := map[string]string{"error": err.Error(), "kind": kind}
		b, marshalErr := json.MarshalIndent(obj, "", "  ")
		if marshalErr == nil {
			fmt.Fprintln(os.Stderr, string(b))
			return
		}
	}
	fmt.Fprintln(os.Stderr, "error:", err)
}
