// Package core holds the domain model of mindvault: notebooks, their
// mind-map nodes, the category hierarchy, and the contracts the rest of the
// module is built against (Bridge, PlatformDirs).
package core

import (
	"fmt"
	"maps"
	"time"
)

// Kind distinguishes notebook payloads.
type Kind string

const (
	KindMindMap Kind = "mindmap"
	KindText    Kind = "text"
)

// DefaultRootID is the identifier given to the root node of new mind maps.
const DefaultRootID = "root"

// Node is one vertex of a mind-map notebook.
type Node struct {
	ID       string
	Text     string
	Children []string

	// Tags drive the derived views.
	Tags Tags
	// TagTime records when the tag list was last assigned.
	TagTime *time.Time
	// Date is the generic per-node date, used when TagTime is absent.
	Date *time.Time

	// Extra carries every other attribute verbatim (image, hyperlink, note,
	// generalization, layout hints of the rendering library, ...).
	Extra map[string]any
}

// Clone returns a deep copy of the node (Extra values are copied shallowly).
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Children = append([]string(nil), n.Children...)
	out.Tags = n.Tags.Clone()
	if n.TagTime != nil {
		t := *n.TagTime
		out.TagTime = &t
	}
	if n.Date != nil {
		t := *n.Date
		out.Date = &t
	}
	if n.Extra != nil {
		out.Extra = maps.Clone(n.Extra)
	}
	return &out
}

// Notebook is a persisted document: either a mind-map tree or plain text.
type Notebook struct {
	ID          string
	Title       string
	Kind        Kind
	LastUpdated time.Time
	Theme       string

	// Mind-map payload.
	RootID string
	Nodes  map[string]*Node

	// Plain-text payload.
	Text string
}

// NewMindMap builds a notebook holding a single root node titled like the notebook.
func NewMindMap(id, title string, now time.Time) *Notebook {
	return &Notebook{
		ID:          id,
		Title:       title,
		Kind:        KindMindMap,
		LastUpdated: now,
		RootID:      DefaultRootID,
		Nodes: map[string]*Node{
			DefaultRootID: {ID: DefaultRootID, Text: title},
		},
	}
}

// NewText builds an empty plain-text notebook.
func NewText(id, title string, now time.Time) *Notebook {
	return &Notebook{
		ID:          id,
		Title:       title,
		Kind:        KindText,
		LastUpdated: now,
	}
}

// Root returns the root node, or nil.
func (nb *Notebook) Root() *Node {
	if nb == nil || nb.Nodes == nil {
		return nil
	}
	return nb.Nodes[nb.RootID]
}

// Node returns the node with the given id, or nil.
func (nb *Notebook) Node(id string) *Node {
	if nb == nil || nb.Nodes == nil {
		return nil
	}
	return nb.Nodes[id]
}

// Walk visits the tree depth-first, parent before children, in child order.
// Nodes are identified by their key in Nodes, and each key is visited at most
// once, so a malformed cyclic file terminates. Returning false from fn skips
// the node's children.
func (nb *Notebook) Walk(fn func(id string, n *Node, depth int) bool) {
	if nb.Root() == nil {
		return
	}
	seen := make(map[string]bool, len(nb.Nodes))
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n := nb.Nodes[id]
		if n == nil || seen[id] {
			return
		}
		seen[id] = true
		if !fn(id, n, depth) {
			return
		}
		for _, cid := range n.Children {
			visit(cid, depth+1)
		}
	}
	visit(nb.RootID, 0)
}

// Validate checks the structural invariants of a mind-map notebook: the root
// exists, every child reference resolves, and the tree is acyclic.
func (nb *Notebook) Validate() error {
	if nb.Kind == KindText {
		return nil
	}
	root := nb.Root()
	if root == nil {
		return fmt.Errorf("notebook %q: %w", nb.ID, ErrMissingRoot)
	}

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(nb.Nodes))
	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case grey:
			return fmt.Errorf("notebook %q: node %q: %w", nb.ID, id, ErrCycle)
		case black:
			return nil
		}
		color[id] = grey
		n := nb.Nodes[id]
		for _, cid := range n.Children {
			if _, ok := nb.Nodes[cid]; !ok {
				return fmt.Errorf("notebook %q: node %q references missing child %q", nb.ID, id, cid)
			}
			if err := visit(cid); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}
	return visit(nb.RootID)
}

// Clone returns a deep copy of the notebook.
func (nb *Notebook) Clone() *Notebook {
	if nb == nil {
		return nil
	}
	out := *nb
	if nb.Nodes != nil {
		out.Nodes = make(map[string]*Node, len(nb.Nodes))
		for id, n := range nb.Nodes {
			out.Nodes[id] = n.Clone()
		}
	}
	return &out
}
