package database

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRoomNotAvailable is returned when the requested date range overlaps
	// an existing confirmed or checked-in booking for the room.
	ErrRoomNotAvailable = errors.New("room is not available for the requested dates")

	// ErrConcurrentModification is returned when a conditional update matched
	// no rows: either the booking changed state underneath the caller or the
	// optimistic version check failed.
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	// ErrDuplicateReference is returned when a generated booking reference
	// collides with an existing one.
	ErrDuplicateReference = errors.New("booking reference already exists")

	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = errors.New("email already registered")
)
