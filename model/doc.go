// Package model adapts external LLM providers to the grid. The mesh itself
// knows nothing about language models; a Model is consumed only through the
// narrow Agent interface via NewAgent, which wraps text generation as a
// text-to-text grid agent.
package model
