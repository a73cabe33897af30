// Package watch implements Marlin's live filesystem watcher (spec
// §4.5): a lifecycle state machine over fsnotify events, debounced and
// coalesced before being applied to the Store.
package watch

import "time"

// State is one stage of the watcher's lifecycle
// (Initializing → Watching ⇄ Paused → ShuttingDown → Stopped).
type State int

const (
	StateInitializing State = iota
	StateWatching
	StatePaused
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateWatching:
		return "watching"
	case StatePaused:
		return "paused"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Kind is a unified event kind, priority-ordered Create > Delete >
// Modify > Access per spec §4.5.
type Kind int

const (
	KindAccess Kind = iota
	KindModify
	KindDelete
	KindCreate
)

// priority returns the coalescing precedence: higher wins when two
// kinds are observed for the same path within one debounce window.
func (k Kind) priority() int { return int(k) }

// rawEvent is one platform event mapped to Marlin's unified model.
type rawEvent struct {
	Path      string
	Kind      Kind
	Timestamp time.Time
}
