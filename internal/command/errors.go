package command

import "errors"

// Domain errors for the command package.
var (
	// ErrInvalidDeviceID is returned when a command targets an empty or
	// reserved device ID.
	ErrInvalidDeviceID = errors.New("command: invalid device id")

	// ErrInvalidRelay is returned when a relay name is not recognised.
	ErrInvalidRelay = errors.New("command: invalid relay")

	// ErrInvalidLockState is returned when a lock state value cannot be
	// normalised to locked/unlocked.
	ErrInvalidLockState = errors.New("command: invalid lock state")

	// ErrInvalidDuration is returned when a buzzer duration is out of range.
	ErrInvalidDuration = errors.New("command: invalid duration")
)
