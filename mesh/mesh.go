// Package mesh provides the client-facing facade for deploying, registering
// and invoking agents across grid nodes. It composes the protocol layer with
// the agent directory; the facade itself is value-like and safe to copy via
// WithServerLocation.
package mesh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentgrid/core"
	"github.com/hupe1980/agentgrid/directory"
	"github.com/hupe1980/agentgrid/logging"
	"github.com/hupe1980/agentgrid/protocol"
)

// ErrNoDirectory is returned by directory-dependent operations when the mesh
// was built without one.
var ErrNoDirectory = errors.New("mesh has no directory attached")

// Options configures a Mesh.
type Options struct {
	// Directory receives capability registrations made through
	// RegisterWithCapabilities. Optional.
	Directory *directory.Directory

	// DefaultLocation is where Register deploys to. Defaults to
	// localhost:8080.
	DefaultLocation core.AgentLocation

	// Logger receives operational events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Mesh is the facade for deploying, registering and obtaining callable
// handles for agents.
type Mesh struct {
	protocol        protocol.Protocol
	directory       *directory.Directory
	defaultLocation core.AgentLocation
	logger          logging.Logger
}

// New creates a mesh over the given protocol.
func New(p protocol.Protocol, optFns ...func(o *Options)) *Mesh {
	opts := Options{
		DefaultLocation: core.LocalLocation(8080),
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Mesh{
		protocol:        p,
		directory:       opts.Directory,
		defaultLocation: opts.DefaultLocation,
		logger:          opts.Logger,
	}
}

// DefaultLocation returns the location Register deploys to. Part of the
// public contract so wrapping code never has to reach into private state.
func (m *Mesh) DefaultLocation() core.AgentLocation { return m.defaultLocation }

// Directory returns the attached directory, or nil.
func (m *Mesh) Directory() *directory.Directory { return m.directory }

// WithServerLocation returns a new mesh with a different default deployment
// location. The receiver is unchanged.
func (m *Mesh) WithServerLocation(location core.AgentLocation) *Mesh {
	clone := *m
	clone.defaultLocation = location
	return &clone
}

// Deploy transmits the agent to the given location and returns a reference
// to it.
func (m *Mesh) Deploy(ctx context.Context, agent core.Agent, location core.AgentLocation) (core.RemoteAgentRef, error) {
	start := time.Now()
	ref, err := m.protocol.SendAgent(ctx, agent, location)
	if gl, ok := m.logger.(*logging.GridLogger); ok {
		gl.LogDeployment(ref.ID, location.Address(), time.Since(start), err)
	}
	if err != nil {
		return core.RemoteAgentRef{}, fmt.Errorf("deploy to %s: %w", location.Address(), err)
	}
	return ref, nil
}

// Register deploys the agent to the default location.
func (m *Mesh) Register(ctx context.Context, agent core.Agent) (core.RemoteAgentRef, error) {
	return m.Deploy(ctx, agent, m.defaultLocation)
}

// RegisterWithCapabilities deploys the agent and then registers it in the
// directory under the returned reference. The two steps are not
// transactional: when directory registration fails the agent stays deployed.
// As compensation the directory entry, if one half-exists, is marked Failed,
// and the returned error says the deployment was kept.
func (m *Mesh) RegisterWithCapabilities(ctx context.Context, agent core.Agent, metadata core.AgentMetadata) (core.RemoteAgentRef, error) {
	if m.directory == nil {
		return core.RemoteAgentRef{}, ErrNoDirectory
	}

	ref, err := m.Register(ctx, agent)
	if err != nil {
		return core.RemoteAgentRef{}, err
	}

	if _, err := m.directory.RegisterAgent(ref, metadata); err != nil {
		// Compensate only when the conflicting entry is really ours:
		// never poison an unrelated agent that happens to share the ID.
		if info, ok := m.directory.GetAgentInfo(ref.ID); ok && info.Ref == ref {
			if uerr := m.directory.UpdateAgentStatus(ref.ID, core.StatusFailed); uerr == nil {
				m.logger.Warn("directory registration failed, marked agent as failed", "agent_id", ref.ID)
			}
		}
		return ref, fmt.Errorf("agent %s deployed but directory registration failed (deployment kept): %w", ref.ID, err)
	}

	return ref, nil
}

// RemoteAgent returns a local proxy whose Process forwards to the remote
// agent over the protocol layer.
func (m *Mesh) RemoteAgent(ref core.RemoteAgentRef) core.Agent {
	return &remoteAgent{protocol: m.protocol, ref: ref}
}

// ImportAgent fetches and rebuilds the actual agent from the hosting node.
// Fails with protocol.ErrAgentNotFound when the node does not host it.
func (m *Mesh) ImportAgent(ctx context.Context, ref core.RemoteAgentRef) (core.Agent, error) {
	agent, found, err := m.protocol.GetRemoteAgent(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("import agent %s: %w", ref.ID, err)
	}
	if !found {
		return nil, fmt.Errorf("import agent %s: %w", ref.ID, protocol.ErrAgentNotFound)
	}
	return agent, nil
}

// remoteAgent is the call proxy handed out by RemoteAgent.
type remoteAgent struct {
	protocol protocol.Protocol
	ref      core.RemoteAgentRef
}

// Process implements core.Agent by forwarding over the wire.
func (r *remoteAgent) Process(ctx context.Context, input any) (any, error) {
	return r.protocol.CallRemoteAgent(ctx, r.ref, input)
}

// Call invokes a remote agent with typed input and output. The output is
// coerced via core.As so JSON-decoded values arrive as the caller's type.
func Call[I, O any](ctx context.Context, m *Mesh, ref core.RemoteAgentRef, input I) (O, error) {
	return core.Call[I, O](ctx, m.RemoteAgent(ref), input)
}
