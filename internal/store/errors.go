package store

import (
	"errors"
	"fmt"
)

// Kind classifies a store-level failure so callers (the Command Facade,
// the query engine, the watcher) can react without string-matching error
// text.
type Kind int

const (
	// KindNotFound means the referenced path or entity does not exist.
	KindNotFound Kind = iota
	// KindConflict means a unique constraint was violated (duplicate
	// tag/link/collection/view name).
	KindConflict
	// KindInvalidArgument means a caller-supplied glob, DSL query, or
	// tag-path segment was malformed.
	KindInvalidArgument
	// KindStoreBusy means the database was locked after bounded retries.
	KindStoreBusy
	// KindStoreCorrupt means an integrity check failed.
	KindStoreCorrupt
	// KindIO wraps a filesystem-level failure.
	KindIO
	// KindMigrationFailed means a schema migration aborted.
	KindMigrationFailed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindStoreBusy:
		return "StoreBusy"
	case KindStoreCorrupt:
		return "StoreCorrupt"
	case KindIO:
		return "Io"
	case KindMigrationFailed:
		return "MigrationFailed"
	default:
		return "Unknown"
	}
}

// Error is the typed error surfaced across the store, scanner, watcher,
// and query engine. It always carries the offending path or token where
// one is known, per spec §7's user-visible-failure requirement.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed Error. err may be nil, in which case the Kind's
// own description is used as the message.
func NewError(kind Kind, path string, err error) *Error {
	if err == nil {
		err = errors.New(kind.String())
	}
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *Error, and returns (KindIO, false) otherwise — unclassified failures
// are treated as I/O errors by default since most originate from the
// filesystem.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return KindIO, false
}
