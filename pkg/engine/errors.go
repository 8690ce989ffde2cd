package engine

import "errors"

var (
	// ErrAlertNotFound is returned when no alert has the requested ID
	ErrAlertNotFound = errors.New("alert not found")

	// ErrNotRecurring is returned when skipping a one-shot alert
	ErrNotRecurring = errors.New("alert does not repeat")

	// ErrNoNextOccurrence is returned when the recurrence rule yields no fire time
	ErrNoNextOccurrence = errors.New("alert has no next occurrence")
)
