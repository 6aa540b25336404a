package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrTransientFetch matches every *FetchError. Such failures skip the
	// task for this run only.
	ErrTransientFetch = errors.New("transient fetch failure")
	// ErrNoContent signals that a page lacked the structure an extractor needs.
	ErrNoContent = errors.New("no qualifying content")
	// ErrCorruptState marks an unreadable snapshot.
	ErrCorruptState = errors.New("corrupt snapshot state")
	// ErrDuplicate is returned when a record's keyword or id is already stored.
	ErrDuplicate = errors.New("duplicate record")
)

// FetchError describes a timeout, transport failure, or non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransientFetch) match any FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrTransientFetch
}

// IsSoft reports whether err should skip the current task rather than stop the run.
func IsSoft(err error) bool {
	return errors.Is(err, ErrTransientFetch) || errors.Is(err, ErrNoContent)
}
