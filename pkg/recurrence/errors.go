package recurrence

import "errors"

var (
	// ErrNotRecurring is returned for alerts whose repeat type never advances
	ErrNotRecurring = errors.New("alert does not recur")

	// ErrNoOccurrence is returned when the bounded search finds nothing
	ErrNoOccurrence = errors.New("no next occurrence found")

	// ErrBeyondHorizon is returned when the occurrence is implausibly far away
	ErrBeyondHorizon = errors.New("next occurrence beyond horizon")
)
