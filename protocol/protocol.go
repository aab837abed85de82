package protocol

import (
	"context"

	"github.com/hupe1980/agentgrid/core"
)

// Protocol abstracts the transport used to deploy, invoke and fetch agents
// across nodes. All operations are blocking, context-cancellable and
// timeout-bounded; failures surface as *RemoteError or ErrSerialization and
// are never retried at this layer.
type Protocol interface {
	// SendAgent serializes the agent, transmits an AGENT_DEPLOY envelope
	// to the location and returns a reference bound to the node-issued ID.
	SendAgent(ctx context.Context, agent core.Agent, location core.AgentLocation) (core.RemoteAgentRef, error)

	// CallRemoteAgent serializes the input, sends an AGENT_CALL envelope
	// to the referenced node and returns the deserialized output.
	CallRemoteAgent(ctx context.Context, ref core.RemoteAgentRef, input any) (any, error)

	// GetRemoteAgent fetches the serialized form of the referenced agent.
	// The second return is false when the node reports AGENT_NOT_FOUND;
	// that is a normal negative result, not an error.
	GetRemoteAgent(ctx context.Context, ref core.RemoteAgentRef) (core.Agent, bool, error)
}
