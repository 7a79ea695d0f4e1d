package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing habit and a habit owned by
	// someone else; callers cannot distinguish the two.
	ErrNotFound = errors.New("habit not found")

	ErrUnauthenticated = errors.New("no authenticated user")

	// ErrInvalidState marks a broken internal invariant, e.g. duplicate
	// logs for one (habit, day) key.
	ErrInvalidState = errors.New("invalid engine state")
)

// PersistError wraps a store failure during a toggle. AfterLogWrite tells
// the caller whether the day's log was already written when the failure
// happened: a blind retry is safe only when it is false. After the log
// write, a retry must re-read state instead of re-toggling, or it would
// double-count XP.
type PersistError struct {
	Op            string
	AfterLogWrite bool
	Err           error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
