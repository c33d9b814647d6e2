package fs

import (
	"sort"

	"github.com/aretw0/introspection"
)

// BridgeState exposes internal state for observability.
type BridgeState struct {
	Versioned      bool     `json:"versioned"`
	VersionedRoots []string `json:"versioned_roots,omitempty"`
	Extensions     []string `json:"extensions"`
	Ignore         []string `json:"ignore"`
	ActiveWatchers int      `json:"active_watchers"`
}

// State implements introspection.Introspectable.
func (b *Bridge) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	roots := make([]string, 0, len(b.roots))
	for root := range b.roots {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	return BridgeState{
		Versioned:      b.config.Versioned,
		VersionedRoots: roots,
		Extensions:     append([]string(nil), b.config.Extensions...),
		Ignore:         append([]string(nil), b.config.Ignore...),
		ActiveWatchers: b.watchers,
	}
}

// ComponentType implements introspection.Component.
func (b *Bridge) ComponentType() string {
	return "fs-bridge"
}

var _ introspection.Introspectable = (*Bridge)(nil)
var _ introspection.Component = (*Bridge)(nil)
