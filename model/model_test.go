package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("hello", "hi there")

	out, err := m.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)

	out, err = m.Generate(context.Background(), "unseen")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: unseen", out)

	assert.Equal(t, Info{Name: "test-model", Provider: "mock"}, m.Info())
}

func TestMockModel_CancelledContext(t *testing.T) {
	m := NewMockModel("test-model")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, "hello")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewAgent(t *testing.T) {
	m := NewMockModel("gpt-test")
	m.AddResponse("summarize", "a summary")

	agent := NewAgent(m)

	assert.Equal(t, "String", agent.InputType())
	assert.Equal(t, "String", agent.OutputType())
	assert.Equal(t, []string{"text-generation"}, agent.Capabilities())
	assert.Equal(t, "gpt-test", agent.Properties()["model"])
	assert.Equal(t, "mock", agent.Properties()["provider"])

	out, err := agent.Process(context.Background(), "summarize")
	require.NoError(t, err)
	assert.Equal(t, "a summary", out)
}

func TestNewAgent_Options(t *testing.T) {
	agent := NewAgent(NewMockModel("m"), func(o *AgentOptions) {
		o.Capabilities = []string{"summarization"}
		o.Properties = map[string]string{"tier": "fast"}
	})

	assert.Equal(t, []string{"summarization"}, agent.Capabilities())
	assert.Equal(t, "fast", agent.Properties()["tier"])
	assert.Equal(t, "m", agent.Properties()["model"], "model info is always carried")
}
