package core

import (
	"context"
	"encoding/json"
	"fmt"
)

// Agent is the primary processing unit in AgentGrid. An agent receives an
// input value, performs its work and returns an output value. Agents may be
// hosted in-process or behind a remote node; callers cannot tell the
// difference through this interface.
//
// Implementations must respect context cancellation: a cancelled context
// should abort in-flight work and return ctx.Err() (possibly wrapped).
type Agent interface {
	Process(ctx context.Context, input any) (any, error)
}

// Typed is implemented by agents that advertise their input and output type
// tags. Type tags are opaque strings (e.g. "String", "Int") used for
// structural matching by the directory and the workflow composer, not for
// nominal Go type identity.
type Typed interface {
	InputType() string
	OutputType() string
}

// ComposableAgent is the unit the workflow composer reasons about: a process
// function plus the capability set, type tags and free-form properties that
// describe it. It implements both Agent and Typed.
//
// ComposableAgents are registered into directories and composers by
// reference; the constructing caller retains ownership.
type ComposableAgent struct {
	fn           func(ctx context.Context, input any) (any, error)
	capabilities []string
	inType       string
	outType      string
	properties   map[string]string
}

// ComposableOptions configures optional descriptive attributes of a
// ComposableAgent.
type ComposableOptions struct {
	// Capabilities lists the capability IDs the agent advertises.
	Capabilities []string
	// Properties carries free-form string attributes used in discovery
	// queries (e.g. "version", "region").
	Properties map[string]string
}

// NewComposableAgent constructs a typed composable agent from a process
// function. The generic parameters pin the in-process Go types while inType
// and outType carry the structural tags used at the mesh boundary.
//
// Inputs are coerced to I via As, so a value that crossed a serialization
// boundary (e.g. a JSON number decoded as float64) is still accepted when it
// converts cleanly.
func NewComposableAgent[I, O any](inType, outType string, fn func(ctx context.Context, input I) (O, error), optFns ...func(o *ComposableOptions)) *ComposableAgent {
	opts := ComposableOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}

	return &ComposableAgent{
		fn: func(ctx context.Context, input any) (any, error) {
			typed, err := As[I](input)
			if err != nil {
				return nil, fmt.Errorf("agent input (%s): %w", inType, err)
			}
			return fn(ctx, typed)
		},
		capabilities: append([]string(nil), opts.Capabilities...),
		inType:       inType,
		outType:      outType,
		properties:   cloneStringMap(opts.Properties),
	}
}

// NewComposableAgentFromFn wraps an erased process function. Used internally
// when composing pipelines whose intermediate types are only known as tags.
func NewComposableAgentFromFn(inType, outType string, fn func(ctx context.Context, input any) (any, error), optFns ...func(o *ComposableOptions)) *ComposableAgent {
	opts := ComposableOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}

	return &ComposableAgent{
		fn:           fn,
		capabilities: append([]string(nil), opts.Capabilities...),
		inType:       inType,
		outType:      outType,
		properties:   cloneStringMap(opts.Properties),
	}
}

// Process implements Agent.
func (a *ComposableAgent) Process(ctx context.Context, input any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.fn(ctx, input)
}

// InputType implements Typed.
func (a *ComposableAgent) InputType() string { return a.inType }

// OutputType implements Typed.
func (a *ComposableAgent) OutputType() string { return a.outType }

// Capabilities returns a copy of the advertised capability IDs.
func (a *ComposableAgent) Capabilities() []string {
	return append([]string(nil), a.capabilities...)
}

// Properties returns a copy of the agent's free-form properties.
func (a *ComposableAgent) Properties() map[string]string {
	return cloneStringMap(a.properties)
}

// Metadata derives the directory metadata describing this agent.
func (a *ComposableAgent) Metadata() AgentMetadata {
	return AgentMetadata{
		Capabilities: a.Capabilities(),
		InputType:    a.inType,
		OutputType:   a.outType,
		Properties:   a.Properties(),
	}
}

// Call invokes an agent with a statically typed input and output. It is the
// typed entry point over the erased Agent interface; the output value is
// coerced via As so remote results that round-tripped through JSON decode to
// the caller's expected type.
func Call[I, O any](ctx context.Context, a Agent, input I) (O, error) {
	var zero O
	out, err := a.Process(ctx, input)
	if err != nil {
		return zero, err
	}
	typed, err := As[O](out)
	if err != nil {
		return zero, fmt.Errorf("agent output: %w", err)
	}
	return typed, nil
}

// As coerces a value to T. A direct type assertion is tried first; on
// failure the value is round-tripped through JSON, which covers values that
// crossed a serialization boundary (numbers decoded as float64, structs
// decoded as maps). ErrTypeMismatch is returned when neither works.
func As[T any](v any) (T, error) {
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	var target T
	data, err := json.Marshal(v)
	if err != nil {
		return target, fmt.Errorf("%w: %T is not %T", ErrTypeMismatch, v, target)
	}
	if err := json.Unmarshal(data, &target); err != nil {
		return target, fmt.Errorf("%w: %T is not %T", ErrTypeMismatch, v, target)
	}
	return target, nil
}

func cloneStringMap(m map[string]string) map[string]string {
	cloned := make(map[string]string, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}
