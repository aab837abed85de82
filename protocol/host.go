package protocol

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/hupe1980/agentgrid/core"
	"github.com/hupe1980/agentgrid/directory"
	"github.com/hupe1980/agentgrid/logging"
)

// HostOptions configures a hosting node.
type HostOptions struct {
	// Serializer decodes incoming agents and values. Defaults to a fresh
	// JSONSerializer; supply the serializer that has the expected agent
	// types registered.
	Serializer Serializer

	// Directory, when set, is exposed read-only over the /events websocket
	// so operators can watch registry mutations.
	Directory *directory.Directory

	// Logger receives operational events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Host is an HTTP node that hosts deployed agents. It accepts envelopes as
// request bodies on /envelope and returns envelopes as response bodies,
// answering AGENT_DEPLOY, AGENT_CALL and AGENT_GET. Agent state is process
// lifetime only.
type Host struct {
	echo       *echo.Echo
	serializer Serializer
	dir        *directory.Directory
	logger     logging.Logger
	upgrader   websocket.Upgrader

	mu     sync.RWMutex
	agents map[string]core.Agent
}

// NewHost constructs a hosting node.
func NewHost(optFns ...func(o *HostOptions)) *Host {
	opts := HostOptions{
		Serializer: NewJSONSerializer(),
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &Host{
		echo:       echo.New(),
		serializer: opts.Serializer,
		dir:        opts.Directory,
		logger:     opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		agents: make(map[string]core.Agent),
	}

	h.echo.HideBanner = true
	h.echo.HidePort = true
	h.echo.POST("/envelope", h.handleEnvelope)
	h.echo.GET("/health", h.handleHealth)
	h.echo.GET("/events", h.handleEvents)

	return h
}

// HostAgent places an agent directly into the node under a fresh ID,
// bypassing the wire. Used by same-process setups and by the deploy handler.
func (h *Host) HostAgent(agent core.Agent) string {
	id := core.NewID()
	h.mu.Lock()
	h.agents[id] = agent
	h.mu.Unlock()
	return id
}

// Agent returns the hosted agent with the given ID.
func (h *Host) Agent(id string) (core.Agent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	agent, ok := h.agents[id]
	return agent, ok
}

// Handler exposes the node as an http.Handler, mainly for tests.
func (h *Host) Handler() http.Handler { return h.echo }

// Start serves on the given address until Shutdown.
func (h *Host) Start(addr string) error {
	h.logger.Info("host listening", "addr", addr)
	return h.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (h *Host) Shutdown(ctx context.Context) error {
	return h.echo.Shutdown(ctx)
}

func (h *Host) handleHealth(c echo.Context) error {
	h.mu.RLock()
	hosted := len(h.agents)
	h.mu.RUnlock()

	return c.JSON(http.StatusOK, map[string]any{
		"status":        "healthy",
		"hosted_agents": hosted,
	})
}

func (h *Host) handleEnvelope(c echo.Context) error {
	var env Envelope
	if err := c.Bind(&env); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed envelope"})
	}

	var resp Envelope
	switch env.MessageType {
	case MessageTypeAgentDeploy:
		resp = h.handleDeploy(env)
	case MessageTypeAgentCall:
		resp = h.handleCall(c.Request().Context(), env)
	case MessageTypeAgentGet:
		resp = h.handleGet(env)
	default:
		resp = h.errorEnvelope(env, fmt.Sprintf("unsupported message type %q", env.MessageType))
	}

	return c.JSON(http.StatusOK, resp.WithMetadata(MetadataCorrelationID, env.ID))
}

func (h *Host) handleDeploy(env Envelope) Envelope {
	agent, err := h.serializer.DeserializeAgent(env.Payload)
	if err != nil {
		h.logger.Error("deploy failed", "error", err)
		return h.errorEnvelope(env, err.Error())
	}

	id := h.HostAgent(agent)
	h.logger.Info("agent deployed", "agent_id", id)

	payload, err := h.serializer.Serialize(DeployResponse{AgentID: id})
	if err != nil {
		return h.errorEnvelope(env, err.Error())
	}
	return NewEnvelope(MessageTypeAgentResponse, payload)
}

func (h *Host) handleCall(ctx context.Context, env Envelope) Envelope {
	var req CallRequest
	if err := h.serializer.Deserialize(env.Payload, &req); err != nil {
		return h.errorEnvelope(env, err.Error())
	}

	agent, ok := h.Agent(req.AgentID)
	if !ok {
		return h.errorEnvelope(env, fmt.Sprintf("agent %s not hosted on this node", req.AgentID))
	}

	var input any
	if len(req.Input) > 0 {
		if err := h.serializer.Deserialize(req.Input, &input); err != nil {
			return h.errorEnvelope(env, err.Error())
		}
	}

	output, err := agent.Process(ctx, input)
	if err != nil {
		h.logger.Error("agent invocation failed", "agent_id", req.AgentID, "error", err)
		return h.errorEnvelope(env, err.Error())
	}

	outputData, err := h.serializer.Serialize(output)
	if err != nil {
		return h.errorEnvelope(env, err.Error())
	}
	payload, err := h.serializer.Serialize(CallResponse{Output: outputData})
	if err != nil {
		return h.errorEnvelope(env, err.Error())
	}
	return NewEnvelope(MessageTypeAgentResponse, payload)
}

func (h *Host) handleGet(env Envelope) Envelope {
	var req GetRequest
	if err := h.serializer.Deserialize(env.Payload, &req); err != nil {
		return h.errorEnvelope(env, err.Error())
	}

	agent, ok := h.Agent(req.AgentID)
	if !ok {
		return NewEnvelope(MessageTypeAgentNotFound, nil)
	}

	data, err := h.serializer.SerializeAgent(agent)
	if err != nil {
		return h.errorEnvelope(env, err.Error())
	}
	return NewEnvelope(MessageTypeAgentFound, data)
}

func (h *Host) errorEnvelope(env Envelope, message string) Envelope {
	payload, err := h.serializer.Serialize(ErrorPayload{Message: message})
	if err != nil {
		payload = nil
	}
	return NewEnvelope(MessageTypeError, payload)
}

// handleEvents streams directory events to a websocket client. Each client
// gets its own subscription; closing the socket cancels it without touching
// other subscribers or blocking the directory.
func (h *Host) handleEvents(c echo.Context) error {
	if h.dir == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no directory attached"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}
	defer func() { _ = ws.Close() }()

	events, cancel := h.dir.Subscribe()
	defer cancel()

	// Reader goroutine: only purpose is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(ev); err != nil {
				return nil
			}
		}
	}
}
