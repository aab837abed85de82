package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentgrid/core"
)

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface a text generation provider must satisfy.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// AgentOptions configures a model-backed agent.
type AgentOptions struct {
	// Capabilities advertised by the agent. Defaults to
	// ["text-generation"].
	Capabilities []string

	// Properties carried into discovery metadata. The model name and
	// provider are always included.
	Properties map[string]string
}

// NewAgent wraps a Model as a composable String->String grid agent.
func NewAgent(m Model, optFns ...func(o *AgentOptions)) *core.ComposableAgent {
	opts := AgentOptions{
		Capabilities: []string{"text-generation"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	info := m.Info()
	properties := map[string]string{
		"model":    info.Name,
		"provider": info.Provider,
	}
	for k, v := range opts.Properties {
		properties[k] = v
	}

	return core.NewComposableAgent("String", "String", func(ctx context.Context, prompt string) (string, error) {
		return m.Generate(ctx, prompt)
	}, func(o *core.ComposableOptions) {
		o.Capabilities = opts.Capabilities
		o.Properties = properties
	})
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; unknown prompts yield a deterministic echo.
func (m *MockModel) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
