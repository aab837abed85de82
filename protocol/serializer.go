package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgrid/core"
)

// Serializer encodes values and agents for the wire. Round-trips must
// reproduce behaviorally equivalent values; encodings must survive a process
// boundary, so implementations back agents by named, re-constructible types
// rather than in-memory references.
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, v any) error
	SerializeAgent(agent core.Agent) ([]byte, error)
	DeserializeAgent(data []byte) (core.Agent, error)
}

// AgentManifest is the wire form of an agent: a registered type name plus
// its configuration. The receiving node rebuilds the agent through the
// factory registered under Type.
type AgentManifest struct {
	Type       string          `json:"type"`
	Config     json.RawMessage `json:"config,omitempty"`
	InputType  string          `json:"input_type,omitempty"`
	OutputType string          `json:"output_type,omitempty"`
}

// SerializableAgent is implemented by agents that can cross a process
// boundary. AgentType names a factory known to the receiving side;
// AgentConfig captures everything the factory needs to rebuild the agent.
type SerializableAgent interface {
	core.Agent
	AgentType() string
	AgentConfig() (json.RawMessage, error)
}

// AgentFactory rebuilds an agent from its serialized configuration.
type AgentFactory func(config json.RawMessage) (core.Agent, error)

// JSONSerializer is the production Serializer: plain JSON for values and
// manifest-based encoding for agents. Factories are instance-scoped; both
// ends of a deployment register the agent types they exchange.
type JSONSerializer struct {
	mu        sync.RWMutex
	factories map[string]AgentFactory
}

// NewJSONSerializer constructs a serializer with no registered agent types.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{factories: make(map[string]AgentFactory)}
}

// RegisterAgentType registers the factory used to rebuild agents of the
// given type name. Registering the same name again replaces the factory.
func (s *JSONSerializer) RegisterAgentType(name string, factory AgentFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[name] = factory
}

// Serialize implements Serializer.
func (s *JSONSerializer) Serialize(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}

// Deserialize implements Serializer.
func (s *JSONSerializer) Deserialize(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return nil
}

// SerializeAgent implements Serializer. The agent must implement
// SerializableAgent; arbitrary closures do not survive a process boundary.
func (s *JSONSerializer) SerializeAgent(agent core.Agent) ([]byte, error) {
	sa, ok := agent.(SerializableAgent)
	if !ok {
		return nil, fmt.Errorf("%w: agent %T does not implement SerializableAgent", ErrSerialization, agent)
	}

	config, err := sa.AgentConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: agent config: %v", ErrSerialization, err)
	}

	manifest := AgentManifest{Type: sa.AgentType(), Config: config}
	if typed, ok := agent.(core.Typed); ok {
		manifest.InputType = typed.InputType()
		manifest.OutputType = typed.OutputType()
	}

	return s.Serialize(manifest)
}

// DeserializeAgent implements Serializer.
func (s *JSONSerializer) DeserializeAgent(data []byte) (core.Agent, error) {
	var manifest AgentManifest
	if err := s.Deserialize(data, &manifest); err != nil {
		return nil, err
	}

	s.mu.RLock()
	factory, ok := s.factories[manifest.Type]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown agent type %q", ErrSerialization, manifest.Type)
	}

	agent, err := factory(manifest.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: rebuild agent %q: %v", ErrSerialization, manifest.Type, err)
	}
	return agent, nil
}

// RegisteredAgent pairs an in-process agent with the type name and config
// under which the receiving side can rebuild it. It forwards Process to the
// wrapped agent and advertises its type tags when the wrapped agent is
// Typed.
type RegisteredAgent struct {
	agent    core.Agent
	typeName string
	config   json.RawMessage
}

// NewRegisteredAgent wraps an agent for deployment. config is marshaled once
// eagerly; pass nil when the factory needs no configuration.
func NewRegisteredAgent(typeName string, config any, agent core.Agent) (*RegisteredAgent, error) {
	var raw json.RawMessage
	if config != nil {
		data, err := json.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("%w: agent config: %v", ErrSerialization, err)
		}
		raw = data
	}
	return &RegisteredAgent{agent: agent, typeName: typeName, config: raw}, nil
}

// Process implements core.Agent.
func (r *RegisteredAgent) Process(ctx context.Context, input any) (any, error) {
	return r.agent.Process(ctx, input)
}

// AgentType implements SerializableAgent.
func (r *RegisteredAgent) AgentType() string { return r.typeName }

// AgentConfig implements SerializableAgent.
func (r *RegisteredAgent) AgentConfig() (json.RawMessage, error) { return r.config, nil }

// InputType implements core.Typed, deferring to the wrapped agent.
func (r *RegisteredAgent) InputType() string {
	if typed, ok := r.agent.(core.Typed); ok {
		return typed.InputType()
	}
	return ""
}

// OutputType implements core.Typed, deferring to the wrapped agent.
func (r *RegisteredAgent) OutputType() string {
	if typed, ok := r.agent.(core.Typed); ok {
		return typed.OutputType()
	}
	return ""
}

// Unwrap returns the wrapped agent.
func (r *RegisteredAgent) Unwrap() core.Agent { return r.agent }
