package event

import "errors"

// Domain errors for the event package.
var (
	// ErrEventNotFound is returned when an event ID does not exist.
	ErrEventNotFound = errors.New("event: not found")

	// ErrInvalidEvent is returned when an event fails validation.
	ErrInvalidEvent = errors.New("event: invalid")
)
