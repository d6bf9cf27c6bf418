package user

import "errors"

// Domain errors for the user package.
var (
	// ErrUserNotFound is returned when a user ID does not exist.
	ErrUserNotFound = errors.New("user: not found")

	// ErrUserExists is returned when creating a user with an ID that already exists.
	ErrUserExists = errors.New("user: already exists")

	// ErrInvalidUser is returned when user validation fails.
	ErrInvalidUser = errors.New("user: invalid")
)
