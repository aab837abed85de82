package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgrid/core"
)

// ErrMixedInputTypes is returned by Parallel when the branch agents do not
// share a single input type.
var ErrMixedInputTypes = errors.New("parallel agents must share one input type")

// Combiner reduces the outputs of parallel branches into a single value.
// Results arrive in branch order.
type Combiner func(ctx context.Context, results []any) (any, error)

// Parallel builds a fan-out agent: every branch receives the same input
// concurrently and the combiner reduces their outputs. The first branch
// failure cancels the remaining branches and fails the whole invocation; no
// partial aggregation is delivered.
//
// outputType tags the combined result since the combiner's output type is
// not derivable from the branches.
func Parallel(outputType string, combiner Combiner, agents ...*core.ComposableAgent) (*core.ComposableAgent, error) {
	if len(agents) == 0 {
		return nil, errors.New("parallel requires at least one agent")
	}
	if combiner == nil {
		return nil, errors.New("parallel requires a combiner")
	}

	inputType := agents[0].InputType()
	for _, a := range agents[1:] {
		if a.InputType() != inputType {
			return nil, fmt.Errorf("%w: %q vs %q", ErrMixedInputTypes, inputType, a.InputType())
		}
	}

	branches := append([]*core.ComposableAgent(nil), agents...)
	union := capabilityUnion(branches)

	return core.NewComposableAgentFromFn(inputType, outputType, func(ctx context.Context, input any) (any, error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		results := make([]any, len(branches))
		errCh := make(chan error, len(branches))

		var wg sync.WaitGroup
		for i, branch := range branches {
			wg.Add(1)
			go func(i int, branch *core.ComposableAgent) {
				defer wg.Done()
				out, err := branch.Process(ctx, input)
				if err != nil {
					errCh <- fmt.Errorf("parallel branch %d (%s->%s): %w", i+1, branch.InputType(), branch.OutputType(), err)
					cancel()
					return
				}
				results[i] = out
			}(i, branch)
		}
		wg.Wait()
		close(errCh)

		if err := <-errCh; err != nil {
			return nil, err
		}

		return combiner(ctx, results)
	}, func(o *core.ComposableOptions) {
		o.Capabilities = union.Capabilities
	}), nil
}
