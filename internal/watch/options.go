package watch

import "time"

// Options configures a Watcher, grounded on the teacher's fileWatcher's
// debounce/limit fields, generalized to spec §4.5's defaults.
type Options struct {
	// Debounce is the coalescing window per path. Default 100ms.
	Debounce time.Duration
	// DrainTimeout bounds ShuttingDown's flush. Default 5s.
	DrainTimeout time.Duration
	// QueueCap bounds the number of distinct paths accumulated in one
	// window before overflow downgrades to a dirty-root mark.
	QueueCap int
	// MaxDirectories bounds how many directories a single watcher will
	// subscribe to, mirroring the teacher's resource ceiling.
	MaxDirectories int
	// MaxDepth bounds recursive directory subscription depth.
	MaxDepth int
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 100 * time.Millisecond
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = 5 * time.Second
	}
	if o.QueueCap <= 0 {
		o.QueueCap = 10000
	}
	if o.MaxDirectories <= 0 {
		o.MaxDirectories = 10000
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 64
	}
	return o
}
