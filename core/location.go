package core

import "fmt"

// AgentLocation identifies a hosting node in the grid.
type AgentLocation struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LocalLocation returns a location on the loopback interface, a convenience
// for same-process hosting.
func LocalLocation(port int) AgentLocation {
	return AgentLocation{Host: "localhost", Port: port}
}

// Address renders the location as a host:port authority.
func (l AgentLocation) Address() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// String implements fmt.Stringer.
func (l AgentLocation) String() string { return l.Address() }

// RemoteAgentRef is an opaque, serializable handle to a deployed agent. It
// carries identity and location only, never behavior: invocation goes through
// the protocol layer.
type RemoteAgentRef struct {
	ID       string        `json:"id"`
	Location AgentLocation `json:"location"`
}

// NewRemoteAgentRef binds a fresh UUID to a location.
func NewRemoteAgentRef(location AgentLocation) RemoteAgentRef {
	return RemoteAgentRef{ID: NewID(), Location: location}
}

// String implements fmt.Stringer.
func (r RemoteAgentRef) String() string {
	return fmt.Sprintf("%s@%s", r.ID, r.Location.Address())
}
