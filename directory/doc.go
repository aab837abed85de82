// Package directory implements the concurrent agent registry: agent identity
// mapped to remote reference, capability metadata and lifecycle status, with
// capability and type directed discovery queries and a pub/sub stream of
// registry mutations.
package directory
