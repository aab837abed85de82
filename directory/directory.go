package directory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentgrid/core"
	"github.com/hupe1980/agentgrid/logging"
)

// Options configures a Directory.
type Options struct {
	// EventBufferSize is the per-subscriber channel buffer. When a slow
	// subscriber's buffer fills, further events for it are dropped so
	// registry mutations never block on delivery.
	EventBufferSize int

	// Logger receives operational events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Directory is a concurrency-safe registry of agents keyed by agent ID.
// Only the directory mutates its backing map; callers interact exclusively
// through the exported operations. Every mutation is atomic with respect to
// concurrent readers: a discovery call observes either the full pre- or the
// full post-state of any single mutation.
type Directory struct {
	mu      sync.RWMutex
	agents  map[string]*AgentInfo
	subs    map[string]*subscriber
	bufSize int
	logger  logging.Logger
}

type subscriber struct {
	ch     chan Event
	closed bool
}

// New constructs an empty directory.
func New(optFns ...func(o *Options)) *Directory {
	opts := Options{
		EventBufferSize: 64,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Directory{
		agents:  make(map[string]*AgentInfo),
		subs:    make(map[string]*subscriber),
		bufSize: opts.EventBufferSize,
		logger:  opts.Logger,
	}
}

// RegisterAgent creates an entry in status Registering and emits a
// registered event. The entry is keyed by ref.ID; registering the same ID
// twice fails with ErrAlreadyRegistered and leaves no partial state.
func (d *Directory) RegisterAgent(ref core.RemoteAgentRef, metadata core.AgentMetadata) (AgentInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.agents[ref.ID]; ok {
		return AgentInfo{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, ref.ID)
	}

	now := time.Now().UTC()
	info := &AgentInfo{
		AgentID:       ref.ID,
		Ref:           ref,
		Metadata:      metadata.Clone(),
		Status:        core.StatusRegistering,
		RegisteredAt:  now,
		LastUpdatedAt: now,
	}
	d.agents[ref.ID] = info

	snapshot := info.Clone()
	d.publishLocked(Event{
		Type:      EventAgentRegistered,
		AgentID:   ref.ID,
		Info:      &snapshot,
		Timestamp: now,
	})

	d.logger.Info("agent registered", "agent_id", ref.ID, "capabilities", metadata.Capabilities)

	return info.Clone(), nil
}

// UpdateAgentStatus transitions the agent's lifecycle status and emits a
// status-changed event. Fails with ErrAgentNotFound for unknown agents.
func (d *Directory) UpdateAgentStatus(agentID string, status core.AgentStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, ok := d.agents[agentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}

	old := info.Status
	info.Status = status
	info.LastUpdatedAt = time.Now().UTC()

	d.publishLocked(Event{
		Type:      EventAgentStatusChanged,
		AgentID:   agentID,
		OldStatus: old,
		NewStatus: status,
		Timestamp: info.LastUpdatedAt,
	})

	d.logger.Debug("agent status changed", "agent_id", agentID, "old", old, "new", status)

	return nil
}

// UnregisterAgent removes the entry and emits an unregistered event. Fails
// with ErrAgentNotFound when absent.
func (d *Directory) UnregisterAgent(agentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.agents[agentID]; !ok {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	delete(d.agents, agentID)

	d.publishLocked(Event{
		Type:      EventAgentUnregistered,
		AgentID:   agentID,
		Timestamp: time.Now().UTC(),
	})

	d.logger.Info("agent unregistered", "agent_id", agentID)

	return nil
}

// DiscoverAgents returns cloned entries matching the query, ordered by
// registration time (ties broken by agent ID) and truncated to Limit. No
// match yields an empty slice, never an error.
func (d *Directory) DiscoverAgents(query Query) []AgentInfo {
	start := time.Now()

	d.mu.RLock()
	matches := make([]AgentInfo, 0)
	for _, info := range d.agents {
		if query.Matches(*info) {
			matches = append(matches, info.Clone())
		}
	}
	d.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RegisteredAt.Equal(matches[j].RegisteredAt) {
			return matches[i].AgentID < matches[j].AgentID
		}
		return matches[i].RegisteredAt.Before(matches[j].RegisteredAt)
	})

	if query.Limit > 0 && len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}

	if gl, ok := d.logger.(*logging.GridLogger); ok {
		gl.LogDiscovery(query.Capabilities, len(matches), time.Since(start))
	}

	return matches
}

// GetAgentInfo returns a clone of the entry for the given agent.
func (d *Directory) GetAgentInfo(agentID string) (AgentInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	info, ok := d.agents[agentID]
	if !ok {
		return AgentInfo{}, false
	}
	return info.Clone(), true
}

// AllAgents returns clones of every entry, ordered by registration time.
func (d *Directory) AllAgents() []AgentInfo {
	return d.DiscoverAgents(Query{})
}

// Subscribe returns a stream of future registry events plus a cancel
// function. Subscribers see only events emitted after subscription, each
// independently and in mutation order per agent. Cancel is idempotent and
// closes the channel; other subscribers are unaffected.
func (d *Directory) Subscribe() (<-chan Event, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := core.NewID()
	sub := &subscriber{ch: make(chan Event, d.bufSize)}
	d.subs[id] = sub

	cancel := func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if s, ok := d.subs[id]; ok && !s.closed {
			s.closed = true
			close(s.ch)
			delete(d.subs, id)
		}
	}

	return sub.ch, cancel
}

// publishLocked fans an event out to all subscribers. Caller holds the write
// lock, which serializes publication and preserves per-agent ordering. Sends
// are non-blocking: a full subscriber buffer drops the event for that
// subscriber only.
func (d *Directory) publishLocked(ev Event) {
	for _, sub := range d.subs {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			d.logger.Warn("subscriber buffer full, dropping event", "type", ev.Type, "agent_id", ev.AgentID)
		}
	}
}
