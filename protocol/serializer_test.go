package protocol

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgrid/core"
)

func TestJSONSerializer_ValueRoundTrip(t *testing.T) {
	s := NewJSONSerializer()

	type sample struct {
		Name  string            `json:"name"`
		Count int               `json:"count"`
		Tags  map[string]string `json:"tags"`
	}

	in := sample{Name: "agent", Count: 3, Tags: map[string]string{"region": "eu"}}
	data, err := s.Serialize(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, s.Deserialize(data, &out))
	assert.Equal(t, in, out)
}

func TestJSONSerializer_Deserialize_Malformed(t *testing.T) {
	s := NewJSONSerializer()
	var v map[string]any
	assert.ErrorIs(t, s.Deserialize([]byte("{not json"), &v), ErrSerialization)
}

func TestJSONSerializer_AgentRoundTrip(t *testing.T) {
	s := NewJSONSerializer()
	s.RegisterAgentType("uppercase", func(config json.RawMessage) (core.Agent, error) {
		inner := core.NewComposableAgent("String", "String", func(_ context.Context, in string) (string, error) {
			return strings.ToUpper(in), nil
		})
		return NewRegisteredAgent("uppercase", nil, inner)
	})

	inner := core.NewComposableAgent("String", "String", func(_ context.Context, in string) (string, error) {
		return strings.ToUpper(in), nil
	})
	agent, err := NewRegisteredAgent("uppercase", nil, inner)
	require.NoError(t, err)

	data, err := s.SerializeAgent(agent)
	require.NoError(t, err)

	var manifest AgentManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, "uppercase", manifest.Type)
	assert.Equal(t, "String", manifest.InputType)
	assert.Equal(t, "String", manifest.OutputType)

	rebuilt, err := s.DeserializeAgent(data)
	require.NoError(t, err)

	out, err := rebuilt.Process(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out)
}

func TestJSONSerializer_AgentConfig(t *testing.T) {
	type repeatConfig struct {
		Times int `json:"times"`
	}

	s := NewJSONSerializer()
	s.RegisterAgentType("repeat", func(config json.RawMessage) (core.Agent, error) {
		var cfg repeatConfig
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		inner := core.NewComposableAgent("String", "String", func(_ context.Context, in string) (string, error) {
			return strings.Repeat(in, cfg.Times), nil
		})
		return NewRegisteredAgent("repeat", cfg, inner)
	})

	inner := core.NewComposableAgent("String", "String", func(_ context.Context, in string) (string, error) {
		return strings.Repeat(in, 2), nil
	})
	agent, err := NewRegisteredAgent("repeat", repeatConfig{Times: 2}, inner)
	require.NoError(t, err)

	data, err := s.SerializeAgent(agent)
	require.NoError(t, err)

	rebuilt, err := s.DeserializeAgent(data)
	require.NoError(t, err)

	out, err := rebuilt.Process(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, "abab", out)
}

func TestJSONSerializer_SerializeAgent_NotSerializable(t *testing.T) {
	s := NewJSONSerializer()
	plain := core.NewComposableAgent("String", "String", func(_ context.Context, in string) (string, error) {
		return in, nil
	})

	_, err := s.SerializeAgent(plain)
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestJSONSerializer_DeserializeAgent_UnknownType(t *testing.T) {
	s := NewJSONSerializer()

	data, err := json.Marshal(AgentManifest{Type: "nope"})
	require.NoError(t, err)

	_, err = s.DeserializeAgent(data)
	require.ErrorIs(t, err, ErrSerialization)
	assert.Contains(t, err.Error(), "nope")
}
