package capability

import "errors"

var (
	// ErrDuplicateCapability is returned when a capability ID is already
	// registered.
	ErrDuplicateCapability = errors.New("capability already registered")

	// ErrUnknownParent is returned when a capability references a parent
	// that has not been registered.
	ErrUnknownParent = errors.New("parent capability not registered")

	// ErrInvalidCapability is returned for capabilities without an ID.
	ErrInvalidCapability = errors.New("capability id must not be empty")
)
