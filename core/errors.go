package core

import "errors"

var (
	// ErrTypeMismatch is returned when a value cannot be coerced to the
	// type an agent or caller expects. Type tags at the mesh boundary are
	// validated explicitly; runtime casts across a serialization boundary
	// are never trusted.
	ErrTypeMismatch = errors.New("value does not match expected type")
)
