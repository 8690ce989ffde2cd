package store

import "errors"

var (
	// ErrNotFound is returned when no alert has the requested ID
	ErrNotFound = errors.New("alert not found")

	// ErrDuplicateID is returned when adding an alert whose ID is taken
	ErrDuplicateID = errors.New("duplicate alert id")

	// ErrLoadFailed is returned when the stored alert list could not be read.
	// Save keeps returning it until a Load succeeds.
	ErrLoadFailed = errors.New("alert list could not be loaded")
)
