package core

// AgentStatus tracks the lifecycle state of a registered agent.
type AgentStatus string

const (
	// StatusRegistering is the initial state assigned on registration.
	StatusRegistering AgentStatus = "registering"
	// StatusActive marks an agent as ready to serve invocations.
	StatusActive AgentStatus = "active"
	// StatusPaused marks an agent as temporarily out of rotation.
	StatusPaused AgentStatus = "paused"
	// StatusDeregistered marks an agent as administratively retired.
	StatusDeregistered AgentStatus = "deregistered"
	// StatusFailed marks an agent whose deployment or registration broke.
	StatusFailed AgentStatus = "failed"
)

// AgentMetadata describes an agent for discovery: its advertised
// capabilities, structural input/output type tags and free-form properties.
type AgentMetadata struct {
	Capabilities []string          `json:"capabilities"`
	InputType    string            `json:"input_type"`
	OutputType   string            `json:"output_type"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// HasCapabilities reports whether every ID in required is present in the
// metadata's capability set. Matching is literal subset membership; the
// capability taxonomy's parent/child links never ascend into matching.
func (m AgentMetadata) HasCapabilities(required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(m.Capabilities))
	for _, c := range m.Capabilities {
		set[c] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

// HasProperties reports whether every key/value pair in required is present
// in the metadata's properties.
func (m AgentMetadata) HasProperties(required map[string]string) bool {
	for k, v := range required {
		if m.Properties[k] != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m AgentMetadata) Clone() AgentMetadata {
	return AgentMetadata{
		Capabilities: append([]string(nil), m.Capabilities...),
		InputType:    m.InputType,
		OutputType:   m.OutputType,
		Properties:   cloneStringMap(m.Properties),
	}
}
