// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer GridLogger with contextual
// helpers (component, node) and domain specific logging helpers for remote
// calls, deployments, discovery and workflow composition.
package logging
