package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrSerialization is returned when a value or agent cannot be encoded
	// or decoded, including type-tag mismatches at the wire boundary.
	ErrSerialization = errors.New("serialization failed")

	// ErrAgentNotFound is returned when a remote node reports that it does
	// not host the requested agent.
	ErrAgentNotFound = errors.New("agent not found on remote node")
)

// RemoteErrorKind classifies remote invocation failures.
type RemoteErrorKind string

const (
	// RemoteErrorTimeout marks a call that exceeded its deadline.
	RemoteErrorTimeout RemoteErrorKind = "timeout"
	// RemoteErrorTransport marks a network or HTTP level failure.
	RemoteErrorTransport RemoteErrorKind = "transport"
	// RemoteErrorRemote marks a failure reported by the remote node
	// (ERROR envelope or non-OK response).
	RemoteErrorRemote RemoteErrorKind = "remote"
)

// RemoteError is returned by the protocol layer when a remote invocation
// fails. The mesh never retries; callers needing resilience wrap calls with
// their own retry policy.
type RemoteError struct {
	Kind    RemoteErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote invocation failed (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("remote invocation failed (%s): %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *RemoteError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a RemoteError of kind timeout.
func IsTimeout(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == RemoteErrorTimeout
}
