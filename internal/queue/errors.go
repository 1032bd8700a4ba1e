package queue

import (
	"errors"
	"fmt"
)

// Sentinel errors classify queue operation failures. Callers branch with
// errors.Is; the wrapped detail carries the human-readable reason.
var (
	// ErrValidation marks a malformed enqueue request. The item is never created.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks a transition whose precondition no longer held. The
	// caller should re-read the item and retry its action.
	ErrConflict = errors.New("state conflict")
	// ErrInvalidState marks an action that is illegal for the item's current
	// state, such as deleting the in-flight item.
	ErrInvalidState = errors.New("invalid state for action")
	// ErrNotFound marks a reference to an item or profile that does not exist.
	ErrNotFound = errors.New("not found")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictErr(id int64, expected, actual State) error {
	return fmt.Errorf("%w: item %d is %s, expected %s", ErrConflict, id, actual, expected)
}

func notFoundErr(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, kind, id)
}

func invalidStateErr(id int64, state State, action string) error {
	return fmt.Errorf("%w: cannot %s item %d while %s", ErrInvalidState, action, id, state)
}
