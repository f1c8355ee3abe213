package thread

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the caller did not supply an acting user.
	ErrUnauthenticated = errors.New("thread: no acting user")

	// ErrEmptyText rejects comment or reply bodies that are empty after
	// trimming, before any store call is made.
	ErrEmptyText = errors.New("thread: text must not be empty")
)

// CascadeError reports a delete cascade aborted mid-way. Step names the
// operation that failed; everything before it succeeded, everything after
// it was not attempted, so the parent row still exists.
type CascadeError struct {
	Step string
	Err  error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("thread: cascade aborted at %s: %v", e.Step, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }
