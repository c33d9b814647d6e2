// Package lifecycle exposes workspace change events as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/mindvault/pkg/core"
)

type workspaceSource struct {
	events <-chan core.Event
	filter func(core.Event) bool
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that forwards workspace events.
// A nil filter forwards everything.
func NewSource(events <-chan core.Event, filter func(core.Event) bool) lifecycle.Source {
	return &workspaceSource{
		events: events,
		filter: filter,
		out:    make(chan lifecycle.Event),
	}
}

func (s *workspaceSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events on a tracked goroutine until ctx ends or the
// upstream channel closes.
func (s *workspaceSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.filter != nil && !s.filter(e) {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

// NotebooksOnly keeps file events and drops directory events.
func NotebooksOnly(e core.Event) bool {
	return !e.Dir
}
