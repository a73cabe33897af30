package marlinconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataDir indicates a missing data directory.
	ErrEmptyDataDir = errors.New("empty data directory")

	// ErrInvalidDebounce indicates a non-positive debounce window.
	ErrInvalidDebounce = errors.New("invalid watch debounce")

	// ErrInvalidRetention indicates a negative snapshot retention count.
	ErrInvalidRetention = errors.New("invalid snapshot retention")
)

// Validate checks that cfg is usable.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.DataDir == "" {
		errs = append(errs, ErrEmptyDataDir)
	}
	if cfg.Watch.DebounceMS <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMS))
	}
	if cfg.Snapshot.Retention < 0 {
		errs = append(errs, fmt.Errorf("%w: cannot be negative, got %d", ErrInvalidRetention, cfg.Snapshot.Retention))
	}

	return joinErrors(errs)
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	msg := "invalid configuration:"
	for _, err := range errs {
		msg += "\n  - " + err.Error()
	}
	return errors.New(msg)
}
