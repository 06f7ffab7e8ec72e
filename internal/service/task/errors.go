package task

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced by the service. Handlers map these onto HTTP
// statuses with errors.Is; everything else is a server error.
var (
	// ErrValidation marks bad input shape or range.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both "does not exist" and "not owned by the
	// caller". The two are deliberately indistinguishable so the API never
	// leaks whether another user's task id exists.
	ErrNotFound = errors.New("task not found")

	// ErrImmutableState marks an edit on a completed task. The only
	// accepted patch is the one that reverts status to Pending.
	ErrImmutableState = errors.New("completed task is immutable")

	// ErrInvalidState marks an operation that does not apply to the task's
	// current state, e.g. restoring a task that is not archived.
	ErrInvalidState = errors.New("invalid task state")

	// ErrUnavailable marks a downstream dependency failure.
	ErrUnavailable = errors.New("dependency unavailable")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
