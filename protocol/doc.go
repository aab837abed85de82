// Package protocol implements the wire layer of AgentGrid: the message
// envelope format, JSON serialization of values and agents, the Protocol
// abstraction for deploying and invoking agents on remote nodes, and the
// HTTP transport binding (client and hosting node).
package protocol
