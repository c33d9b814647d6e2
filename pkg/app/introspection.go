package app

import (
	"github.com/aretw0/introspection"
)

// CoordinatorState is the observability summary of a Coordinator.
type CoordinatorState struct {
	Status     Status `json:"status"`
	Workspace  string `json:"workspace"`
	Categories int    `json:"categories"`
	Notes      int    `json:"notes"`
	ActiveNote string `json:"active_note,omitempty"`
	Watching   bool   `json:"watching"`
	LastError  string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (c *Coordinator) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := CoordinatorState{
		Status:     c.status,
		Workspace:  c.user.WorkspacePath,
		Categories: len(c.categories),
		Notes:      len(c.notes),
		Watching:   c.watching,
		LastError:  c.lastErr,
	}
	if c.active != nil {
		s.ActiveNote = c.active.ID
	}
	return s
}

// ComponentType implements introspection.Component.
func (c *Coordinator) ComponentType() string {
	return "coordinator"
}

var _ introspection.Introspectable = (*Coordinator)(nil)
var _ introspection.Component = (*Coordinator)(nil)
