// Package mindmap connects a mind-map editor to the coordinator: node
// mutations go through the Editor interface and the resulting tree is
// persisted after a quiet period.
package mindmap

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/mindvault/pkg/core"
)

// Node attribute keys understood by the rendering library.
const (
	KeyImage                  = "image"
	KeyImageTitle             = "imageTitle"
	KeyImageSize              = "imageSize"
	KeyHyperlink              = "hyperlink"
	KeyHyperlinkTitle         = "hyperlinkTitle"
	KeyNote                   = "note"
	KeyGeneralization         = "generalization"
	KeyAssociativeLineTargets = "associativeLineTargets"
)

// ErrNoActiveNode is returned by operations that need a selection.
var ErrNoActiveNode = errors.New("no active node")

// Image is a picture attached to a node.
type Image struct {
	URL    string
	Title  string
	Width  int
	Height int
}

// Hyperlink is a link attached to a node.
type Hyperlink struct {
	URL   string
	Title string
}

// Editor is the part of a mind-map editor the shim drives. Implementations
// must be safe for concurrent use.
type Editor interface {
	SetNodeText(id, text string) error
	SetNodeImage(id string, img Image) error
	SetNodeHyperlink(id string, link Hyperlink) error
	SetNodeNote(id, note string) error
	// SetNodeTags replaces the tag list and records when it was assigned.
	SetNodeTags(id string, tags core.Tags, at time.Time) error
	// AddGeneralization attaches a summary label to each of the nodes.
	AddGeneralization(ids []string, text string) error
	AddAssociativeLine(fromID, toID string) error
	// ActiveNodes returns the selected node ids.
	ActiveNodes() []string
	// Snapshot returns an independent copy of the current tree.
	Snapshot() *core.Notebook
}

// TreeEditor is an Editor over an in-memory notebook, for headless use.
type TreeEditor struct {
	mu       sync.RWMutex
	nb       *core.Notebook
	selected []string
}

// NewTreeEditor edits a copy of nb.
func NewTreeEditor(nb *core.Notebook) (*TreeEditor, error) {
	if nb == nil || nb.Kind == core.KindText {
		return nil, fmt.Errorf("tree editor needs a mind map")
	}
	return &TreeEditor{nb: nb.Clone()}, nil
}

// Select replaces the selection. Unknown ids are rejected.
func (e *TreeEditor) Select(ids ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		if e.nb.Node(id) == nil {
			return fmt.Errorf("select %q: %w", id, core.ErrNotFound)
		}
	}
	e.selected = slices.Clone(ids)
	return nil
}

// AddChild appends a new node under parentID and returns its id.
func (e *TreeEditor) AddChild(parentID, text string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	parent := e.nb.Node(parentID)
	if parent == nil {
		return "", fmt.Errorf("add child to %q: %w", parentID, core.ErrNotFound)
	}
	id := uuid.NewString()
	e.nb.Nodes[id] = &core.Node{ID: id, Text: text}
	parent.Children = append(parent.Children, id)
	return id, nil
}

// RemoveNode detaches id and its subtree. The root cannot be removed.
func (e *TreeEditor) RemoveNode(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == e.nb.RootID {
		return fmt.Errorf("remove %q: root node", id)
	}
	if e.nb.Node(id) == nil {
		return fmt.Errorf("remove %q: %w", id, core.ErrNotFound)
	}

	var drop func(string)
	drop = func(nid string) {
		n := e.nb.Nodes[nid]
		if n == nil {
			return
		}
		delete(e.nb.Nodes, nid)
		for _, cid := range n.Children {
			drop(cid)
		}
	}
	drop(id)
	for _, n := range e.nb.Nodes {
		n.Children = slices.DeleteFunc(n.Children, func(cid string) bool { return e.nb.Nodes[cid] == nil })
	}
	e.selected = slices.DeleteFunc(e.selected, func(sid string) bool { return e.nb.Nodes[sid] == nil })
	return nil
}

func (e *TreeEditor) update(id string, fn func(n *core.Node)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.nb.Node(id)
	if n == nil {
		return fmt.Errorf("node %q: %w", id, core.ErrNotFound)
	}
	fn(n)
	return nil
}

func setExtra(n *core.Node, key string, value any) {
	if n.Extra == nil {
		n.Extra = make(map[string]any)
	}
	if value == nil {
		delete(n.Extra, key)
		return
	}
	n.Extra[key] = value
}

func (e *TreeEditor) SetNodeText(id, text string) error {
	return e.update(id, func(n *core.Node) { n.Text = text })
}

func (e *TreeEditor) SetNodeImage(id string, img Image) error {
	return e.update(id, func(n *core.Node) {
		if img.URL == "" {
			setExtra(n, KeyImage, nil)
			setExtra(n, KeyImageTitle, nil)
			setExtra(n, KeyImageSize, nil)
			return
		}
		setExtra(n, KeyImage, img.URL)
		setExtra(n, KeyImageTitle, img.Title)
		setExtra(n, KeyImageSize, map[string]any{"width": img.Width, "height": img.Height})
	})
}

func (e *TreeEditor) SetNodeHyperlink(id string, link Hyperlink) error {
	return e.update(id, func(n *core.Node) {
		if link.URL == "" {
			setExtra(n, KeyHyperlink, nil)
			setExtra(n, KeyHyperlinkTitle, nil)
			return
		}
		setExtra(n, KeyHyperlink, link.URL)
		setExtra(n, KeyHyperlinkTitle, link.Title)
	})
}

func (e *TreeEditor) SetNodeNote(id, note string) error {
	return e.update(id, func(n *core.Node) {
		if note == "" {
			setExtra(n, KeyNote, nil)
			return
		}
		setExtra(n, KeyNote, note)
	})
}

func (e *TreeEditor) SetNodeTags(id string, tags core.Tags, at time.Time) error {
	return e.update(id, func(n *core.Node) {
		n.Tags = tags.Clone()
		if len(tags) == 0 {
			n.TagTime = nil
			return
		}
		n.TagTime = &at
	})
}

func (e *TreeEditor) AddGeneralization(ids []string, text string) error {
	for _, id := range ids {
		err := e.update(id, func(n *core.Node) {
			var list []any
			if existing, ok := n.Extra[KeyGeneralization].([]any); ok {
				list = slices.Clone(existing)
			}
			setExtra(n, KeyGeneralization, append(list, map[string]any{"text": text}))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *TreeEditor) AddAssociativeLine(fromID, toID string) error {
	e.mu.RLock()
	target := e.nb.Node(toID)
	e.mu.RUnlock()
	if target == nil {
		return fmt.Errorf("associative line to %q: %w", toID, core.ErrNotFound)
	}
	return e.update(fromID, func(n *core.Node) {
		var targets []any
		if existing, ok := n.Extra[KeyAssociativeLineTargets].([]any); ok {
			targets = slices.Clone(existing)
		}
		if slices.Contains(targets, any(toID)) {
			return
		}
		setExtra(n, KeyAssociativeLineTargets, append(targets, toID))
	})
}

func (e *TreeEditor) ActiveNodes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.selected)
}

func (e *TreeEditor) Snapshot() *core.Notebook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nb.Clone()
}

var _ Editor = (*TreeEditor)(nil)
