// Package agentgrid provides a high-level façade over the mesh building
// blocks (capability taxonomy, agent directory, protocol layer and workflow
// composer) enabling rapid construction of distributed multi-agent systems.
// Most applications interact with this package by:
//  1. Creating a Grid via New() (optionally overriding defaults)
//  2. Registering capabilities and agents with capability metadata
//  3. Discovering agents or composing workflows and invoking them
//
// The façade delegates wiring to the underlying packages while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger and a
// shared serializer with their agent types registered.
package agentgrid

import (
	"context"

	"github.com/hupe1980/agentgrid/capability"
	"github.com/hupe1980/agentgrid/core"
	"github.com/hupe1980/agentgrid/directory"
	"github.com/hupe1980/agentgrid/logging"
	"github.com/hupe1980/agentgrid/mesh"
	"github.com/hupe1980/agentgrid/protocol"
	"github.com/hupe1980/agentgrid/workflow"
)

// Options configures the Grid instance.
type Options struct {
	// Serializer encodes values and agents for the wire. Defaults to a
	// fresh JSONSerializer shared between the protocol and any host.
	Serializer protocol.Serializer

	// Protocol is the transport. Defaults to the HTTP protocol built over
	// Serializer.
	Protocol protocol.Protocol

	// Directory is the agent registry. Defaults to an in-memory one.
	Directory *directory.Directory

	// Capabilities is the taxonomy registry. Defaults to an empty one.
	Capabilities *capability.Registry

	// DefaultLocation is where Register deploys to. Defaults to
	// localhost:8080.
	DefaultLocation core.AgentLocation

	// MaxHops bounds workflow search depth.
	MaxHops int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Grid is the high-level façade aggregating the mesh, directory, taxonomy
// and composer.
type Grid struct {
	opts     Options
	mesh     *mesh.Mesh
	composer *workflow.Composer
}

// New creates a new Grid instance with optional overrides. Any unset
// collaborator is initialized with an in-memory / local default.
func New(optFns ...func(o *Options)) *Grid {
	opts := Options{
		Serializer:      protocol.NewJSONSerializer(),
		Directory:       directory.New(),
		Capabilities:    capability.NewRegistry(),
		DefaultLocation: core.LocalLocation(8080),
		MaxHops:         workflow.DefaultMaxHops,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Protocol == nil {
		opts.Protocol = protocol.NewHTTPProtocol(func(o *protocol.HTTPOptions) {
			o.Serializer = opts.Serializer
			o.Logger = opts.Logger
		})
	}

	m := mesh.New(opts.Protocol, func(o *mesh.Options) {
		o.Directory = opts.Directory
		o.DefaultLocation = opts.DefaultLocation
		o.Logger = opts.Logger
	})

	composer := workflow.NewComposer(func(o *workflow.Options) {
		o.MaxHops = opts.MaxHops
		o.Directory = opts.Directory
		o.Caller = m
		o.Logger = opts.Logger
	})

	return &Grid{opts: opts, mesh: m, composer: composer}
}

// Mesh returns the deployment facade.
func (g *Grid) Mesh() *mesh.Mesh { return g.mesh }

// Directory returns the agent registry.
func (g *Grid) Directory() *directory.Directory { return g.opts.Directory }

// Capabilities returns the taxonomy registry.
func (g *Grid) Capabilities() *capability.Registry { return g.opts.Capabilities }

// Composer returns the workflow composer.
func (g *Grid) Composer() *workflow.Composer { return g.composer }

// Serializer returns the shared serializer; register agent types here before
// deploying them.
func (g *Grid) Serializer() protocol.Serializer { return g.opts.Serializer }

// RegisterCapability adds a capability to the taxonomy.
func (g *Grid) RegisterCapability(cap capability.Capability) error {
	return g.opts.Capabilities.Register(cap)
}

// RegisterWithCapabilities deploys the agent and registers it in the
// directory. Capability IDs present in the taxonomy are validated; unknown
// IDs are allowed so agents can advertise ahead of taxonomy curation, but a
// warning is logged.
func (g *Grid) RegisterWithCapabilities(ctx context.Context, agent core.Agent, metadata core.AgentMetadata) (core.RemoteAgentRef, error) {
	for _, id := range metadata.Capabilities {
		if !g.opts.Capabilities.Has(id) {
			g.opts.Logger.Warn("agent advertises capability not in taxonomy", "capability", id)
		}
	}
	return g.mesh.RegisterWithCapabilities(ctx, agent, metadata)
}

// RegisterLocalAgent adds a composable agent to the workflow composer's
// search space without deploying it anywhere.
func (g *Grid) RegisterLocalAgent(agent *core.ComposableAgent) {
	g.composer.RegisterAgent(agent)
}

// CreateWorkflow composes agents from inputType to outputType covering the
// required capabilities. The second return is false when no workflow exists.
func (g *Grid) CreateWorkflow(inputType, outputType string, requiredCapabilities ...string) (*core.ComposableAgent, bool) {
	return g.composer.CreateWorkflow(inputType, outputType, requiredCapabilities...)
}

// SubscribeToEvents streams future directory mutations. Cancel the
// subscription with the returned function.
func (g *Grid) SubscribeToEvents() (<-chan directory.Event, func()) {
	return g.opts.Directory.Subscribe()
}
