package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marlin-fs/marlin/internal/scanner"
	"github.com/marlin-fs/marlin/internal/store"
)

// skipDirNames mirrors the teacher's addDirectoriesRecursively: common
// directories that are never worth subscribing to.
var skipDirNames = map[string]bool{
	".git": true, "node_modules": true, ".marlin": true,
}

// Watcher runs Marlin's live filesystem watcher lifecycle over a set of
// roots, coalescing fsnotify events and applying them to a Store.
type Watcher struct {
	st      *store.Store
	sc      *scanner.Scanner
	roots   []string
	opts    Options
	fsw     *fsnotify.Watcher

	stateMu sync.RWMutex
	state   State

	pausedMu    sync.Mutex
	accumulated map[string]rawEvent
	overflowed  bool

	timerMu sync.Mutex
	timer   *time.Timer

	watchedDirs int
	dirCountMu  sync.Mutex

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New constructs a Watcher. sc is used for the Initializing state's
// catch-up scan.
func New(st *store.Store, sc *scanner.Scanner, roots []string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		st:          st,
		sc:          sc,
		roots:       roots,
		opts:        opts.withDefaults(),
		fsw:         fsw,
		state:       StateInitializing,
		accumulated: make(map[string]rawEvent),
		done:        make(chan struct{}),
	}, nil
}

// State reports the watcher's current lifecycle state.
func (w *Watcher) State() State {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state
}

func (w *Watcher) setState(s State) {
	w.stateMu.Lock()
	w.state = s
	w.stateMu.Unlock()
}

// Start runs the Initializing phase (catch-up scan plus directory
// subscription) and transitions to Watching.
func (w *Watcher) Start(ctx context.Context) error {
	w.setState(StateInitializing)

	if w.sc != nil {
		if _, err := w.sc.Scan(ctx, w.roots, scanner.ModeFull); err != nil {
			return fmt.Errorf("catch-up scan failed: %w", err)
		}
	}

	for _, root := range w.roots {
		if err := w.addDirectoriesRecursively(root, 0); err != nil {
			w.fsw.Close()
			return fmt.Errorf("subscribing to %s: %w", root, err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.setState(StateWatching)
	go w.run(runCtx)
	return nil
}

// Pause transitions Watching → Paused: events are still accumulated but
// never flushed (spec §4.5, used during snapshot).
func (w *Watcher) Pause() {
	if w.State() == StateWatching {
		w.setState(StatePaused)
	}
}

// Resume transitions Paused → Watching and immediately flushes whatever
// accumulated during the pause.
func (w *Watcher) Resume() {
	if w.State() != StatePaused {
		return
	}
	w.setState(StateWatching)
	w.flush(context.Background())
}

// Stop transitions ShuttingDown → Stopped, flushing the queue within
// DrainTimeout; anything still queued after the deadline is converted
// to dirty-marks instead of being applied directly.
func (w *Watcher) Stop(ctx context.Context) error {
	var stopErr error
	w.stopOnce.Do(func() {
		w.setState(StateShuttingDown)

		drainCtx, cancel := context.WithTimeout(ctx, w.opts.DrainTimeout)
		defer cancel()

		if w.cancel != nil {
			w.cancel()
			select {
			case <-w.done:
			case <-drainCtx.Done():
			}
		} else {
			close(w.done)
		}

		w.stopTimer()
		if drainCtx.Err() == nil {
			w.flush(drainCtx)
		}
		w.pausedMu.Lock()
		remaining := w.accumulated
		w.accumulated = make(map[string]rawEvent)
		w.pausedMu.Unlock()

		if len(remaining) > 0 {
			w.degradeToDirtyMarks(ctx, remaining)
		}

		stopErr = w.fsw.Close()
		w.setState(StateStopped)
	})
	return stopErr
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	flushCh := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event, flushCh)

		case <-flushCh:
			w.flush(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event, flushCh chan struct{}) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addDirectoriesRecursively(event.Name, 0); err != nil {
				log.Printf("warning: failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	kind, ok := mapOp(event.Op)
	if !ok {
		return
	}

	w.pausedMu.Lock()
	if existing, found := w.accumulated[event.Name]; !found || kind.priority() >= existing.Kind.priority() {
		w.accumulated[event.Name] = rawEvent{Path: event.Name, Kind: kind, Timestamp: time.Now()}
	}
	overflow := len(w.accumulated) > w.opts.QueueCap
	if overflow {
		w.overflowed = true
		w.accumulated = make(map[string]rawEvent)
	}
	w.pausedMu.Unlock()

	w.resetTimer(flushCh)
}

func mapOp(op fsnotify.Op) (Kind, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return KindCreate, true
	case op&fsnotify.Remove != 0, op&fsnotify.Rename != 0:
		return KindDelete, true
	case op&fsnotify.Write != 0:
		return KindModify, true
	case op&fsnotify.Chmod != 0:
		return KindAccess, true
	default:
		return 0, false
	}
}

func (w *Watcher) resetTimer(flushCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() {
		select {
		case flushCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// addDirectoriesRecursively subscribes rootPath and its subdirectories
// to fsnotify, bounded by MaxDepth/MaxDirectories, grounded on the
// teacher's fileWatcher.addDirectoriesRecursively.
func (w *Watcher) addDirectoriesRecursively(rootPath string, depth int) error {
	if depth > w.opts.MaxDepth {
		return fmt.Errorf("max depth %d exceeded at %s", w.opts.MaxDepth, rootPath)
	}
	if skipDirNames[filepath.Base(rootPath)] {
		return nil
	}

	w.dirCountMu.Lock()
	if w.watchedDirs >= w.opts.MaxDirectories {
		count := w.watchedDirs
		w.dirCountMu.Unlock()
		return fmt.Errorf("directory limit reached: %d watched (max %d)", count, w.opts.MaxDirectories)
	}
	w.dirCountMu.Unlock()

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return err
	}

	if err := w.fsw.Add(rootPath); err != nil {
		return fmt.Errorf("watching %s: %w", rootPath, err)
	}
	w.dirCountMu.Lock()
	w.watchedDirs++
	w.dirCountMu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() || skipDirNames[entry.Name()] {
			continue
		}
		sub := filepath.Join(rootPath, entry.Name())
		if err := w.addDirectoriesRecursively(sub, depth+1); err != nil {
			log.Printf("warning: %v", err)
		}
	}
	return nil
}
