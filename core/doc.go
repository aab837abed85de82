// Package core defines the shared domain types of AgentGrid: the Agent
// processing unit, composable typed agents, remote references, locations,
// capability metadata and lifecycle status. Every other package builds on
// these types; core itself has no dependencies beyond the standard library
// and uuid generation.
package core
