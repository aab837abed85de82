package directory

import "errors"

var (
	// ErrAgentNotFound is returned by status updates and unregistration
	// when the agent is not in the directory. Unregistering an unknown
	// agent fails rather than succeeding idempotently.
	ErrAgentNotFound = errors.New("agent not found in directory")

	// ErrAlreadyRegistered is returned when an agent ID is registered
	// twice.
	ErrAlreadyRegistered = errors.New("agent already registered")
)
