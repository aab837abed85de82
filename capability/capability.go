// Package capability provides the hierarchical capability taxonomy: named
// tags describing what agents can do, organized as a forest of parent/child
// links. The taxonomy is append-only for the lifetime of the registry and is
// used for validation and organization; capability matching in the directory
// stays literal subset membership and never ascends the hierarchy.
package capability

// Capability is a named, hierarchically organized tag. A non-root capability
// references its parent by ID; the parent must already be registered.
// Capabilities are immutable once registered.
type Capability struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ParentID    string `json:"parent_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// New constructs a root capability.
func New(id, name, description string) Capability {
	return Capability{ID: id, Name: name, Description: description}
}

// NewChild constructs a capability below an existing parent.
func NewChild(id, name, parentID, description string) Capability {
	return Capability{ID: id, Name: name, ParentID: parentID, Description: description}
}

// IsRoot reports whether the capability has no parent.
func (c Capability) IsRoot() bool { return c.ParentID == "" }
