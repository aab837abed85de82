package protocol

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgrid/core"
)

// newWireSerializer builds the serializer both ends of the wire share in
// these tests, with a word-count agent type registered.
func newWireSerializer(t *testing.T) *JSONSerializer {
	t.Helper()
	s := NewJSONSerializer()
	s.RegisterAgentType("word-count", func(_ json.RawMessage) (core.Agent, error) {
		inner := core.NewComposableAgent("String", "Int", func(_ context.Context, in string) (int, error) {
			return len(strings.Fields(in)), nil
		})
		return NewRegisteredAgent("word-count", nil, inner)
	})
	return s
}

func startTestHost(t *testing.T, host *Host) core.AgentLocation {
	t.Helper()
	ts := httptest.NewServer(host.Handler())
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return core.AgentLocation{Host: u.Hostname(), Port: port}
}

func newWordCountAgent(t *testing.T) *RegisteredAgent {
	t.Helper()
	inner := core.NewComposableAgent("String", "Int", func(_ context.Context, in string) (int, error) {
		return len(strings.Fields(in)), nil
	})
	agent, err := NewRegisteredAgent("word-count", nil, inner)
	require.NoError(t, err)
	return agent
}

func TestHTTPProtocol_DeployCallGet(t *testing.T) {
	s := newWireSerializer(t)
	host := NewHost(func(o *HostOptions) { o.Serializer = s })
	location := startTestHost(t, host)

	p := NewHTTPProtocol(func(o *HTTPOptions) { o.Serializer = s })
	ctx := context.Background()

	ref, err := p.SendAgent(ctx, newWordCountAgent(t), location)
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, location, ref.Location)

	out, err := p.CallRemoteAgent(ctx, ref, "hello world")
	require.NoError(t, err)
	assert.Equal(t, float64(2), out, "JSON transport decodes numbers as float64")

	fetched, found, err := p.GetRemoteAgent(ctx, ref)
	require.NoError(t, err)
	require.True(t, found)

	n, err := core.Call[string, int](ctx, fetched, "one two three")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestHTTPProtocol_GetRemoteAgent_NotFound(t *testing.T) {
	s := newWireSerializer(t)
	host := NewHost(func(o *HostOptions) { o.Serializer = s })
	location := startTestHost(t, host)

	p := NewHTTPProtocol(func(o *HTTPOptions) { o.Serializer = s })

	_, found, err := p.GetRemoteAgent(context.Background(), core.RemoteAgentRef{ID: "missing", Location: location})
	require.NoError(t, err, "a missing agent is a negative result, not an error")
	assert.False(t, found)
}

func TestHTTPProtocol_CallRemoteAgent_UnknownAgent(t *testing.T) {
	s := newWireSerializer(t)
	host := NewHost(func(o *HostOptions) { o.Serializer = s })
	location := startTestHost(t, host)

	p := NewHTTPProtocol(func(o *HTTPOptions) { o.Serializer = s })

	_, err := p.CallRemoteAgent(context.Background(), core.RemoteAgentRef{ID: "missing", Location: location}, "in")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, RemoteErrorRemote, re.Kind)
	assert.Contains(t, re.Message, "missing")
}

func TestHTTPProtocol_CallRemoteAgent_AgentError(t *testing.T) {
	s := NewJSONSerializer()
	host := NewHost(func(o *HostOptions) { o.Serializer = s })

	failing := core.NewComposableAgentFromFn("String", "String", func(_ context.Context, _ any) (any, error) {
		return nil, assert.AnError
	})
	id := host.HostAgent(failing)
	location := startTestHost(t, host)

	p := NewHTTPProtocol(func(o *HTTPOptions) { o.Serializer = s })

	_, err := p.CallRemoteAgent(context.Background(), core.RemoteAgentRef{ID: id, Location: location}, "in")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, RemoteErrorRemote, re.Kind)
}

func TestHTTPProtocol_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	u, err := url.Parse(slow.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	location := core.AgentLocation{Host: u.Hostname(), Port: port}

	p := NewHTTPProtocol(func(o *HTTPOptions) { o.Timeout = 50 * time.Millisecond })

	_, err = p.CallRemoteAgent(context.Background(), core.RemoteAgentRef{ID: "x", Location: location}, "in")
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected timeout kind, got %v", err)
}

func TestHTTPProtocol_TransportFailure(t *testing.T) {
	// Nothing listens on this port.
	p := NewHTTPProtocol(func(o *HTTPOptions) { o.Timeout = time.Second })

	_, err := p.CallRemoteAgent(context.Background(), core.RemoteAgentRef{ID: "x", Location: core.LocalLocation(1)}, "in")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, RemoteErrorTransport, re.Kind)
}

func TestHost_CorrelationMetadata(t *testing.T) {
	s := newWireSerializer(t)
	host := NewHost(func(o *HostOptions) { o.Serializer = s })
	location := startTestHost(t, host)

	env := NewEnvelope(MessageTypeAgentGet, mustMarshal(t, GetRequest{AgentID: "missing"}))
	body := mustMarshal(t, env)

	resp, err := http.Post("http://"+location.Address()+"/envelope", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var respEnv Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&respEnv))
	assert.Equal(t, MessageTypeAgentNotFound, respEnv.MessageType)

	correlation, ok := respEnv.MetadataValue(MetadataCorrelationID)
	require.True(t, ok)
	assert.Equal(t, env.ID, correlation)
	assert.NotEqual(t, env.ID, respEnv.ID, "response envelopes carry their own ID")
}

func TestHost_Health(t *testing.T) {
	host := NewHost()
	host.HostAgent(core.NewComposableAgentFromFn("String", "String", func(_ context.Context, in any) (any, error) {
		return in, nil
	}))
	location := startTestHost(t, host)

	resp, err := http.Get("http://" + location.Address() + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(1), health["hosted_agents"])
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
