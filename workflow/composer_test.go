package workflow

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgrid/core"
	"github.com/hupe1980/agentgrid/directory"
	"github.com/hupe1980/agentgrid/internal/testutil"
)

func TestComposer_DirectMatch(t *testing.T) {
	c := NewComposer()
	c.RegisterAgent(testutil.UppercaseAgent("text-processing", "uppercase"))

	wf, ok := c.CreateWorkflow("String", "String", "uppercase")
	require.True(t, ok)
	assert.Equal(t, "String", wf.InputType())
	assert.Equal(t, "String", wf.OutputType())

	out, err := wf.Process(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out)
}

func TestComposer_TwoStepChain(t *testing.T) {
	c := NewComposer()
	c.RegisterAgent(testutil.WordCountAgent("text-processing", "word-count"))
	c.RegisterAgent(testutil.IntToStringAgent("conversion"))

	wf, ok := c.CreateWorkflow("String", "String", "word-count")
	require.True(t, ok)

	// Soundness: types line up and the path's capability union covers the
	// requirement.
	assert.Equal(t, "String", wf.InputType())
	assert.Equal(t, "String", wf.OutputType())
	assert.True(t, wf.Metadata().HasCapabilities([]string{"word-count"}))
	assert.Equal(t, "2", wf.Properties()["workflow.steps"])

	out, err := wf.Process(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestComposer_DirectMatchPrecedence(t *testing.T) {
	c := NewComposer()
	// A two-step route exists...
	c.RegisterAgent(testutil.WordCountAgent("text-processing"))
	c.RegisterAgent(testutil.IntToStringAgent("text-processing"))
	// ...but a direct agent satisfies the request on its own.
	c.RegisterAgent(testutil.UppercaseAgent("text-processing"))

	wf, ok := c.CreateWorkflow("String", "String", "text-processing")
	require.True(t, ok)
	assert.Empty(t, wf.Properties()["workflow.steps"], "direct matches are returned as-is, not wrapped")

	out, err := wf.Process(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, "AB", out, "the single-step agent must win over the chain")
}

func TestComposer_CapabilityUnionAcrossPath(t *testing.T) {
	c := NewComposer()
	c.RegisterAgent(testutil.WordCountAgent("word-count"))
	c.RegisterAgent(testutil.IntToStringAgent("conversion"))

	// Neither agent alone has both capabilities; the union across the
	// chain does.
	wf, ok := c.CreateWorkflow("String", "String", "word-count", "conversion")
	require.True(t, ok)
	assert.True(t, wf.Metadata().HasCapabilities([]string{"conversion", "word-count"}))
}

func TestComposer_NoWorkflowIsNegativeResult(t *testing.T) {
	c := NewComposer()
	c.RegisterAgent(testutil.WordCountAgent("word-count"))

	wf, ok := c.CreateWorkflow("String", "Float")
	assert.False(t, ok)
	assert.Nil(t, wf)

	// Capabilities can also rule everything out.
	wf, ok = c.CreateWorkflow("String", "Int", "nonexistent-capability")
	assert.False(t, ok)
	assert.Nil(t, wf)
}

func TestComposer_HopBound(t *testing.T) {
	c := NewComposer(func(o *Options) { o.MaxHops = 2 })

	mk := func(in, out string) *core.ComposableAgent {
		return core.NewComposableAgentFromFn(in, out, func(_ context.Context, v any) (any, error) {
			return v, nil
		})
	}
	// A->B->C->D needs three hops; the bound is two.
	c.RegisterAgent(mk("A", "B"))
	c.RegisterAgent(mk("B", "C"))
	c.RegisterAgent(mk("C", "D"))

	_, ok := c.CreateWorkflow("A", "D")
	assert.False(t, ok)

	_, ok = c.CreateWorkflow("A", "C")
	assert.True(t, ok)
}

func TestComposer_ShortCircuitOnFailure(t *testing.T) {
	c := NewComposer()

	var secondRan bool
	c.RegisterAgent(core.NewComposableAgentFromFn("String", "Int", func(_ context.Context, _ any) (any, error) {
		return nil, assert.AnError
	}))
	c.RegisterAgent(core.NewComposableAgentFromFn("Int", "String", func(_ context.Context, v any) (any, error) {
		secondRan = true
		return v, nil
	}))

	wf, ok := c.CreateWorkflow("String", "String")
	require.True(t, ok)

	_, err := wf.Process(context.Background(), "x")
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, secondRan, "failure short-circuits the pipeline")
}

// staticCaller resolves every ref to a fixed local agent, standing in for a
// mesh in directory-backed composition tests.
type staticCaller struct {
	agents map[string]core.Agent
}

func (s *staticCaller) RemoteAgent(ref core.RemoteAgentRef) core.Agent {
	return s.agents[ref.ID]
}

func TestComposer_DirectoryDiscoveredAgents(t *testing.T) {
	dir := directory.New()
	caller := &staticCaller{agents: make(map[string]core.Agent)}

	register := func(agent *core.ComposableAgent, status core.AgentStatus) {
		ref := core.NewRemoteAgentRef(core.LocalLocation(8080))
		caller.agents[ref.ID] = agent
		_, err := dir.RegisterAgent(ref, agent.Metadata())
		require.NoError(t, err)
		require.NoError(t, dir.UpdateAgentStatus(ref.ID, status))
	}

	register(testutil.WordCountAgent("text-processing", "word-count"), core.StatusActive)
	register(testutil.IntToStringAgent("conversion"), core.StatusActive)
	// A paused agent with the same shape must not be considered.
	register(testutil.UppercaseAgent("uppercase"), core.StatusPaused)

	c := NewComposer(func(o *Options) {
		o.Directory = dir
		o.Caller = caller
	})

	wf, ok := c.CreateWorkflow("String", "String", "word-count")
	require.True(t, ok)

	out, err := wf.Process(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "2", out)

	_, ok = c.CreateWorkflow("String", "String", "uppercase")
	assert.False(t, ok, "paused agents are excluded from composition")
}

func TestComposer_EndToEndScenario(t *testing.T) {
	// The canonical scenario: word counting through a typed chain.
	c := NewComposer()

	c.RegisterAgent(core.NewComposableAgent("String", "Int", func(_ context.Context, s string) (int, error) {
		n := 0
		inWord := false
		for _, r := range s {
			if r == ' ' {
				inWord = false
				continue
			}
			if !inWord {
				n++
				inWord = true
			}
		}
		return n, nil
	}, func(o *core.ComposableOptions) {
		o.Capabilities = []string{"text-processing", "word-count"}
	}))

	c.RegisterAgent(core.NewComposableAgent("Int", "String", func(_ context.Context, n int) (string, error) {
		return strconv.Itoa(n), nil
	}, func(o *core.ComposableOptions) {
		o.Capabilities = []string{"conversion"}
	}))

	wf, ok := c.CreateWorkflow("String", "String", "word-count")
	require.True(t, ok)

	out, err := core.Call[string, string](context.Background(), wf, "hello world")
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}
