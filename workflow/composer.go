package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentgrid/core"
	"github.com/hupe1980/agentgrid/directory"
	"github.com/hupe1980/agentgrid/logging"
)

// DefaultMaxHops bounds the breadth-first search. Three hops keeps the
// search cheap even for large agent populations while still finding every
// pipeline the source scenarios need.
const DefaultMaxHops = 3

// RemoteCaller turns a remote reference into a callable agent. Satisfied by
// *mesh.Mesh; the composer only needs this one method.
type RemoteCaller interface {
	RemoteAgent(ref core.RemoteAgentRef) core.Agent
}

// Options configures a Composer.
type Options struct {
	// MaxHops bounds the pipeline length. Defaults to DefaultMaxHops.
	MaxHops int

	// Directory, together with Caller, lets the composer include
	// directory-discovered agents in its search. Both optional.
	Directory *directory.Directory
	Caller    RemoteCaller

	// Logger receives operational events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Composer searches registered and discovered agents for workflows.
type Composer struct {
	mu      sync.RWMutex
	agents  []*core.ComposableAgent
	dir     *directory.Directory
	caller  RemoteCaller
	maxHops int
	logger  logging.Logger
}

// NewComposer constructs a composer.
func NewComposer(optFns ...func(o *Options)) *Composer {
	opts := Options{
		MaxHops: DefaultMaxHops,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxHops <= 0 {
		opts.MaxHops = DefaultMaxHops
	}

	return &Composer{
		dir:     opts.Directory,
		caller:  opts.Caller,
		maxHops: opts.MaxHops,
		logger:  opts.Logger,
	}
}

// RegisterAgent adds a local agent to the composer's search space. Agents
// are held by reference; the caller retains ownership.
func (c *Composer) RegisterAgent(agent *core.ComposableAgent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents = append(c.agents, agent)
}

// CreateWorkflow searches for an agent or pipeline from inputType to
// outputType whose combined capabilities cover requiredCapabilities.
//
// A direct match (exact types, capability superset on one agent) wins
// immediately. Otherwise a breadth-first search over the implicit type graph
// finds the shortest chain, ties broken by discovery order; a chain is
// accepted when the union of its capabilities covers the requirement, not
// necessarily any single step.
//
// The second return is false when no workflow exists within the hop bound.
// That is a normal negative result, not an error.
func (c *Composer) CreateWorkflow(inputType, outputType string, requiredCapabilities ...string) (*core.ComposableAgent, bool) {
	start := time.Now()

	candidates := c.candidates()

	// Direct match takes precedence over any multi-hop chain.
	for _, cand := range candidates {
		if cand.InputType() == inputType && cand.OutputType() == outputType && cand.Metadata().HasCapabilities(requiredCapabilities) {
			c.logComposition(inputType, outputType, 1, true, start)
			return cand, true
		}
	}

	if path, ok := c.searchPath(candidates, inputType, outputType, requiredCapabilities); ok {
		wf := compose(inputType, outputType, path)
		c.logComposition(inputType, outputType, len(path), true, start)
		return wf, true
	}

	c.logComposition(inputType, outputType, 0, false, start)
	return nil, false
}

// candidates snapshots the searchable agents: local registrations first (in
// registration order), then active directory entries invoked through the
// remote caller. The snapshot keeps discovery order deterministic for a
// fixed registry state.
func (c *Composer) candidates() []*core.ComposableAgent {
	c.mu.RLock()
	candidates := append([]*core.ComposableAgent(nil), c.agents...)
	c.mu.RUnlock()

	if c.dir == nil || c.caller == nil {
		return candidates
	}

	for _, info := range c.dir.DiscoverAgents(directory.Query{OnlyActive: true}) {
		md := info.Metadata
		proxy := c.caller.RemoteAgent(info.Ref)
		candidates = append(candidates, core.NewComposableAgentFromFn(md.InputType, md.OutputType, proxy.Process, func(o *core.ComposableOptions) {
			o.Capabilities = md.Capabilities
			o.Properties = md.Properties
		}))
	}

	return candidates
}

// searchPath runs the bounded BFS over the implicit graph where each agent
// is an edge from its input type to its output type.
func (c *Composer) searchPath(candidates []*core.ComposableAgent, inputType, outputType string, required []string) ([]*core.ComposableAgent, bool) {
	type node struct {
		typ  string
		path []*core.ComposableAgent
	}

	queue := []node{{typ: inputType}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, cand := range candidates {
			if cand.InputType() != cur.typ {
				continue
			}

			path := make([]*core.ComposableAgent, len(cur.path), len(cur.path)+1)
			copy(path, cur.path)
			path = append(path, cand)

			if cand.OutputType() == outputType && capabilityUnion(path).HasCapabilities(required) {
				return path, true
			}
			if len(path) < c.maxHops {
				queue = append(queue, node{typ: cand.OutputType(), path: path})
			}
		}
	}

	return nil, false
}

// capabilityUnion collects the capabilities across a path into metadata
// usable for subset checks.
func capabilityUnion(path []*core.ComposableAgent) core.AgentMetadata {
	seen := make(map[string]struct{})
	var union []string
	for _, step := range path {
		for _, cap := range step.Capabilities() {
			if _, ok := seen[cap]; ok {
				continue
			}
			seen[cap] = struct{}{}
			union = append(union, cap)
		}
	}
	sort.Strings(union)
	return core.AgentMetadata{Capabilities: union}
}

// compose builds the sequential pipeline agent for a path. Processing
// threads the input through each step and short-circuits on the first
// failure.
func compose(inputType, outputType string, path []*core.ComposableAgent) *core.ComposableAgent {
	steps := append([]*core.ComposableAgent(nil), path...)
	union := capabilityUnion(steps)

	return core.NewComposableAgentFromFn(inputType, outputType, func(ctx context.Context, input any) (any, error) {
		current := input
		for i, step := range steps {
			out, err := step.Process(ctx, current)
			if err != nil {
				return nil, fmt.Errorf("workflow step %d (%s->%s): %w", i+1, step.InputType(), step.OutputType(), err)
			}
			current = out
		}
		return current, nil
	}, func(o *core.ComposableOptions) {
		o.Capabilities = union.Capabilities
		o.Properties = map[string]string{"workflow.steps": fmt.Sprintf("%d", len(steps))}
	})
}

func (c *Composer) logComposition(inputType, outputType string, steps int, found bool, start time.Time) {
	if gl, ok := c.logger.(*logging.GridLogger); ok {
		gl.LogWorkflowComposition(inputType, outputType, steps, found, time.Since(start))
		return
	}
	c.logger.Debug("workflow composition", "input_type", inputType, "output_type", outputType, "steps", steps, "found", found)
}
