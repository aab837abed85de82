package protocol

import (
	"encoding/json"

	"github.com/hupe1980/agentgrid/core"
)

// Wire message types carried in Envelope.MessageType.
const (
	MessageTypeAgentDeploy   = "AGENT_DEPLOY"
	MessageTypeAgentCall     = "AGENT_CALL"
	MessageTypeAgentResponse = "AGENT_RESPONSE"
	MessageTypeAgentGet      = "AGENT_GET"
	MessageTypeAgentFound    = "AGENT_FOUND"
	MessageTypeAgentNotFound = "AGENT_NOT_FOUND"
	MessageTypeError         = "ERROR"
)

// Well-known metadata keys. Metadata is a flat string map for out-of-band
// hints; the HTTP binding sets CorrelationID on response envelopes to the
// request envelope's ID.
const (
	MetadataCorrelationID = "correlation_id"
	MetadataContentType   = "content_type"
)

// Envelope is the wire-level message wrapper. Envelopes are immutable;
// WithMetadata returns a modified copy. The ID is unique per message and is
// not correlated to a request/response pair beyond the transport's own
// framing.
type Envelope struct {
	ID          string            `json:"id"`
	MessageType string            `json:"message_type"`
	Payload     json.RawMessage   `json:"payload,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope wraps a payload under a fresh message ID.
func NewEnvelope(messageType string, payload []byte) Envelope {
	return Envelope{
		ID:          core.NewID(),
		MessageType: messageType,
		Payload:     payload,
	}
}

// WithMetadata returns a copy of the envelope with the given metadata entry
// added. The receiver is left untouched.
func (e Envelope) WithMetadata(key, value string) Envelope {
	md := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	e.Metadata = md
	return e
}

// MetadataValue looks up a metadata entry.
func (e Envelope) MetadataValue(key string) (string, bool) {
	v, ok := e.Metadata[key]
	return v, ok
}

// Payload shapes for the agent hosting message exchange. The deploy request
// payload is the serialized agent itself; everything else uses the structs
// below.

// DeployResponse reports the node-issued ID of a deployed agent.
type DeployResponse struct {
	AgentID string `json:"agent_id"`
}

// CallRequest asks a node to invoke a hosted agent.
type CallRequest struct {
	AgentID string          `json:"agent_id"`
	Input   json.RawMessage `json:"input"`
}

// CallResponse carries the serialized output of an invocation.
type CallResponse struct {
	Output json.RawMessage `json:"output"`
}

// GetRequest asks a node for the serialized form of a hosted agent.
type GetRequest struct {
	AgentID string `json:"agent_id"`
}

// ErrorPayload carries the failure message of an ERROR envelope.
type ErrorPayload struct {
	Message string `json:"message"`
}
