// Package workflow implements the type-directed composer: given a desired
// input/output type and optional required capabilities it searches the known
// agents for a direct match or a chain whose types connect end-to-end, and
// returns the result as a single composable agent. It also provides a
// parallel fan-out combinator.
package workflow
