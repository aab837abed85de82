package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/agentgrid/core"
	"github.com/hupe1980/agentgrid/logging"
)

// HTTPOptions configures the HTTP protocol client.
type HTTPOptions struct {
	// Client is the underlying HTTP client. Defaults to a dedicated
	// http.Client without a client-level timeout; deadlines come from
	// Timeout / the caller's context.
	Client *http.Client

	// Serializer encodes values and agents. Defaults to a fresh
	// JSONSerializer.
	Serializer Serializer

	// Timeout bounds every remote call unless the caller's context carries
	// an earlier deadline. Zero disables the protocol-level timeout.
	Timeout time.Duration

	// Logger receives operational events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// HTTPProtocol is the concrete Protocol over HTTP request/response framing.
// Envelopes travel as JSON request and response bodies against the /envelope
// endpoint of a Host; AgentLocation maps directly to the HTTP authority.
type HTTPProtocol struct {
	client     *http.Client
	serializer Serializer
	timeout    time.Duration
	logger     logging.Logger
}

// NewHTTPProtocol creates an HTTP protocol client with optional overrides.
func NewHTTPProtocol(optFns ...func(o *HTTPOptions)) *HTTPProtocol {
	opts := HTTPOptions{
		Client:     &http.Client{},
		Serializer: NewJSONSerializer(),
		Timeout:    30 * time.Second,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &HTTPProtocol{
		client:     opts.Client,
		serializer: opts.Serializer,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}
}

// Serializer returns the serializer the protocol encodes with. Hosts and
// clients exchanging agents must agree on registered agent types.
func (p *HTTPProtocol) Serializer() Serializer { return p.serializer }

// SendAgent implements Protocol.
func (p *HTTPProtocol) SendAgent(ctx context.Context, agent core.Agent, location core.AgentLocation) (core.RemoteAgentRef, error) {
	data, err := p.serializer.SerializeAgent(agent)
	if err != nil {
		return core.RemoteAgentRef{}, err
	}

	resp, err := p.roundTrip(ctx, location, NewEnvelope(MessageTypeAgentDeploy, data))
	if err != nil {
		return core.RemoteAgentRef{}, err
	}
	if resp.MessageType != MessageTypeAgentResponse {
		return core.RemoteAgentRef{}, unexpectedEnvelope(resp)
	}

	var deployed DeployResponse
	if err := p.serializer.Deserialize(resp.Payload, &deployed); err != nil {
		return core.RemoteAgentRef{}, err
	}

	p.logger.Debug("agent deployed", "agent_id", deployed.AgentID, "location", location.Address())

	return core.RemoteAgentRef{ID: deployed.AgentID, Location: location}, nil
}

// CallRemoteAgent implements Protocol.
func (p *HTTPProtocol) CallRemoteAgent(ctx context.Context, ref core.RemoteAgentRef, input any) (any, error) {
	start := time.Now()

	inputData, err := p.serializer.Serialize(input)
	if err != nil {
		return nil, err
	}

	payload, err := p.serializer.Serialize(CallRequest{AgentID: ref.ID, Input: inputData})
	if err != nil {
		return nil, err
	}

	resp, err := p.roundTrip(ctx, ref.Location, NewEnvelope(MessageTypeAgentCall, payload))
	if err != nil {
		p.logger.Error("remote call failed", "agent_id", ref.ID, "location", ref.Location.Address(), "duration", time.Since(start), "error", err)
		return nil, err
	}
	if resp.MessageType != MessageTypeAgentResponse {
		return nil, unexpectedEnvelope(resp)
	}

	var call CallResponse
	if err := p.serializer.Deserialize(resp.Payload, &call); err != nil {
		return nil, err
	}

	var output any
	if len(call.Output) > 0 {
		if err := p.serializer.Deserialize(call.Output, &output); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("remote call completed", "agent_id", ref.ID, "location", ref.Location.Address(), "duration", time.Since(start))

	return output, nil
}

// GetRemoteAgent implements Protocol.
func (p *HTTPProtocol) GetRemoteAgent(ctx context.Context, ref core.RemoteAgentRef) (core.Agent, bool, error) {
	payload, err := p.serializer.Serialize(GetRequest{AgentID: ref.ID})
	if err != nil {
		return nil, false, err
	}

	resp, err := p.roundTrip(ctx, ref.Location, NewEnvelope(MessageTypeAgentGet, payload))
	if err != nil {
		return nil, false, err
	}

	switch resp.MessageType {
	case MessageTypeAgentFound:
		agent, err := p.serializer.DeserializeAgent(resp.Payload)
		if err != nil {
			return nil, false, err
		}
		return agent, true, nil
	case MessageTypeAgentNotFound:
		return nil, false, nil
	default:
		return nil, false, unexpectedEnvelope(resp)
	}
}

// roundTrip posts an envelope to the location's /envelope endpoint and
// decodes the response envelope, classifying failures into RemoteError
// kinds. An ERROR envelope from the node becomes a remote-kind error.
func (p *HTTPProtocol) roundTrip(ctx context.Context, location core.AgentLocation, env Envelope) (Envelope, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	body, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: envelope: %v", ErrSerialization, err)
	}

	url := fmt.Sprintf("http://%s/envelope", location.Address())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Envelope{}, &RemoteError{Kind: RemoteErrorTransport, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Envelope{}, &RemoteError{Kind: RemoteErrorTimeout, Message: fmt.Sprintf("call to %s timed out", location.Address()), Err: err}
		}
		return Envelope{}, &RemoteError{Kind: RemoteErrorTransport, Message: fmt.Sprintf("call to %s", location.Address()), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, &RemoteError{Kind: RemoteErrorTransport, Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Envelope{}, &RemoteError{Kind: RemoteErrorRemote, Message: fmt.Sprintf("node %s returned status %d", location.Address(), resp.StatusCode)}
	}

	var respEnv Envelope
	if err := json.Unmarshal(respBody, &respEnv); err != nil {
		return Envelope{}, fmt.Errorf("%w: response envelope: %v", ErrSerialization, err)
	}

	if respEnv.MessageType == MessageTypeError {
		var ep ErrorPayload
		_ = json.Unmarshal(respEnv.Payload, &ep)
		return Envelope{}, &RemoteError{Kind: RemoteErrorRemote, Message: ep.Message}
	}

	return respEnv, nil
}

func unexpectedEnvelope(env Envelope) error {
	return &RemoteError{Kind: RemoteErrorRemote, Message: fmt.Sprintf("unexpected envelope %s", env.MessageType)}
}
