package core

import "github.com/google/uuid"

// NewID generates a unique identifier used for agents, envelopes and
// subscriptions throughout the grid.
func NewID() string { return uuid.NewString() }
