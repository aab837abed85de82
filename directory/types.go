package directory

import (
	"time"

	"github.com/hupe1980/agentgrid/core"
)

// AgentInfo is the directory entry for a registered agent. Entries returned
// by queries are clones; mutating them has no effect on registry state.
type AgentInfo struct {
	AgentID       string              `json:"agent_id"`
	Ref           core.RemoteAgentRef `json:"ref"`
	Metadata      core.AgentMetadata  `json:"metadata"`
	Status        core.AgentStatus    `json:"status"`
	RegisteredAt  time.Time           `json:"registered_at"`
	LastUpdatedAt time.Time           `json:"last_updated_at"`
}

// Clone returns a deep copy.
func (i AgentInfo) Clone() AgentInfo {
	i.Metadata = i.Metadata.Clone()
	return i
}

// Query describes a discovery request. Zero values mean "unconstrained":
// empty capability set, empty type tags and nil properties match everything,
// Limit <= 0 returns all matches.
type Query struct {
	Capabilities []string          `json:"capabilities,omitempty"`
	InputType    string            `json:"input_type,omitempty"`
	OutputType   string            `json:"output_type,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
	Limit        int               `json:"limit,omitempty"`
	OnlyActive   bool              `json:"only_active,omitempty"`
}

// Matches reports whether the entry satisfies the query. Capability matching
// is exact subset membership against the agent's advertised set; taxonomy
// parent/child links never ascend into matching.
func (q Query) Matches(info AgentInfo) bool {
	if q.OnlyActive && info.Status != core.StatusActive {
		return false
	}
	if !info.Metadata.HasCapabilities(q.Capabilities) {
		return false
	}
	if q.InputType != "" && info.Metadata.InputType != q.InputType {
		return false
	}
	if q.OutputType != "" && info.Metadata.OutputType != q.OutputType {
		return false
	}
	return info.Metadata.HasProperties(q.Properties)
}

// EventType discriminates directory events.
type EventType string

const (
	// EventAgentRegistered is emitted when an agent enters the directory.
	EventAgentRegistered EventType = "registered"
	// EventAgentStatusChanged is emitted on a lifecycle transition.
	EventAgentStatusChanged EventType = "status_changed"
	// EventAgentUnregistered is emitted when an agent leaves the directory.
	EventAgentUnregistered EventType = "unregistered"
)

// Event describes a single registry mutation. Info is set for registration
// events; OldStatus/NewStatus are set for status changes.
type Event struct {
	Type      EventType        `json:"type"`
	AgentID   string           `json:"agent_id"`
	Info      *AgentInfo       `json:"info,omitempty"`
	OldStatus core.AgentStatus `json:"old_status,omitempty"`
	NewStatus core.AgentStatus `json:"new_status,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
