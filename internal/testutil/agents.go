// Package testutil provides builders shared by package tests: canned typed
// agents and helpers for draining directory event streams.
package testutil

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/agentgrid/core"
	"github.com/hupe1980/agentgrid/directory"
)

// WordCountAgent counts whitespace separated words: String -> Int.
func WordCountAgent(capabilities ...string) *core.ComposableAgent {
	return core.NewComposableAgent("String", "Int", func(_ context.Context, s string) (int, error) {
		return len(strings.Fields(s)), nil
	}, func(o *core.ComposableOptions) {
		o.Capabilities = capabilities
	})
}

// IntToStringAgent renders an int as its decimal string: Int -> String.
func IntToStringAgent(capabilities ...string) *core.ComposableAgent {
	return core.NewComposableAgent("Int", "String", func(_ context.Context, n int) (string, error) {
		return strconv.Itoa(n), nil
	}, func(o *core.ComposableOptions) {
		o.Capabilities = capabilities
	})
}

// UppercaseAgent upper-cases its input: String -> String.
func UppercaseAgent(capabilities ...string) *core.ComposableAgent {
	return core.NewComposableAgent("String", "String", func(_ context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	}, func(o *core.ComposableOptions) {
		o.Capabilities = capabilities
	})
}

// CollectEvents drains up to n events from the stream, giving up after the
// timeout.
func CollectEvents(events <-chan directory.Event, n int, timeout time.Duration) []directory.Event {
	collected := make([]directory.Event, 0, n)
	deadline := time.After(timeout)
	for len(collected) < n {
		select {
		case ev, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, ev)
		case <-deadline:
			return collected
		}
	}
	return collected
}
