// Package views derives the task, question and project lists from the tags
// of a mind-map notebook. Extractors never modify the notebook they read.
package views

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/mindvault/pkg/core"
)

// DateLayout is the display format of progress dates.
const DateLayout = "2006-01-02 15:04"

// ItemKind names the derived item families; it is part of every item id.
type ItemKind string

const (
	KindTask     ItemKind = "task"
	KindQuestion ItemKind = "question"
	KindSolution ItemKind = "solution"
	KindProject  ItemKind = "project"
	KindProgress ItemKind = "progress"
)

// ItemID returns the stable identifier of a derived item. It depends only
// on the kind and the node id, so reordering siblings keeps ids intact.
func ItemID(kind ItemKind, nodeID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(kind)+":"+nodeID)).String()
}

type Task struct {
	ID        string `json:"id" yaml:"id" toml:"id"`
	NodeID    string `json:"nodeId" yaml:"nodeId" toml:"nodeId"`
	ParentID  string `json:"parentId,omitempty" yaml:"parentId,omitempty" toml:"parentId,omitempty"`
	Text      string `json:"text" yaml:"text" toml:"text"`
	Completed bool   `json:"completed" yaml:"completed" toml:"completed"`
}

type Solution struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	NodeID string `json:"nodeId" yaml:"nodeId" toml:"nodeId"`
	Text   string `json:"text" yaml:"text" toml:"text"`
}

type Question struct {
	ID        string     `json:"id" yaml:"id" toml:"id"`
	NodeID    string     `json:"nodeId" yaml:"nodeId" toml:"nodeId"`
	Text      string     `json:"text" yaml:"text" toml:"text"`
	Solutions []Solution `json:"solutions" yaml:"solutions" toml:"solutions"`
}

type Progress struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	NodeID string `json:"nodeId" yaml:"nodeId" toml:"nodeId"`
	Text   string `json:"text" yaml:"text" toml:"text"`
	Date   string `json:"date" yaml:"date" toml:"date"`
}

type Project struct {
	ID       string     `json:"id" yaml:"id" toml:"id"`
	NodeID   string     `json:"nodeId" yaml:"nodeId" toml:"nodeId"`
	Name     string     `json:"name" yaml:"name" toml:"name"`
	Progress []Progress `json:"progress" yaml:"progress" toml:"progress"`
}

// Set bundles the three views of one notebook.
type Set struct {
	Tasks     []Task     `json:"tasks" yaml:"tasks" toml:"tasks"`
	Questions []Question `json:"questions" yaml:"questions" toml:"questions"`
	Projects  []Project  `json:"projects" yaml:"projects" toml:"projects"`
}

// Extract runs every extractor. Undated progress entries use now.
func Extract(nb *core.Notebook, now time.Time) Set {
	return Set{
		Tasks:     Tasks(nb),
		Questions: Questions(nb),
		Projects:  Projects(nb, now),
	}
}

// walk visits the notebook depth-first, passing each node's key and its
// parent's key.
func walk(nb *core.Notebook, fn func(id string, n *core.Node, parentID string)) {
	if nb == nil || nb.Kind == core.KindText {
		return
	}
	parents := make(map[string]string, len(nb.Nodes))
	nb.Walk(func(id string, n *core.Node, _ int) bool {
		for _, cid := range n.Children {
			if _, seen := parents[cid]; !seen {
				parents[cid] = id
			}
		}
		fn(id, n, parents[id])
		return true
	})
}

// Tasks lists the nodes tagged todo.
func Tasks(nb *core.Notebook) []Task {
	out := []Task{}
	walk(nb, func(id string, n *core.Node, parentID string) {
		if !n.Tags.Has(core.TagTodo) {
			return
		}
		out = append(out, Task{
			ID:        ItemID(KindTask, id),
			NodeID:    id,
			ParentID:  parentID,
			Text:      n.Text,
			Completed: n.Tags.Has(core.TagCompleted),
		})
	})
	return out
}

// Questions lists the nodes tagged question; every direct child is a solution.
func Questions(nb *core.Notebook) []Question {
	out := []Question{}
	walk(nb, func(id string, n *core.Node, _ string) {
		if !n.Tags.Has(core.TagQuestion) {
			return
		}
		q := Question{
			ID:        ItemID(KindQuestion, id),
			NodeID:    id,
			Text:      n.Text,
			Solutions: []Solution{},
		}
		for _, cid := range n.Children {
			child := nb.Node(cid)
			if child == nil {
				continue
			}
			q.Solutions = append(q.Solutions, Solution{
				ID:     ItemID(KindSolution, cid),
				NodeID: cid,
				Text:   child.Text,
			})
		}
		out = append(out, q)
	})
	return out
}

// Projects lists the nodes tagged project with their progress children.
func Projects(nb *core.Notebook, now time.Time) []Project {
	out := []Project{}
	walk(nb, func(id string, n *core.Node, _ string) {
		if !n.Tags.Has(core.TagProject) {
			return
		}
		p := Project{
			ID:       ItemID(KindProject, id),
			NodeID:   id,
			Name:     n.Text,
			Progress: []Progress{},
		}
		for _, cid := range n.Children {
			child := nb.Node(cid)
			if child == nil || !child.Tags.Has(core.TagProgress) {
				continue
			}
			p.Progress = append(p.Progress, Progress{
				ID:     ItemID(KindProgress, cid),
				NodeID: cid,
				Text:   child.Text,
				Date:   progressDate(child, now),
			})
		}
		out = append(out, p)
	})
	return out
}

func progressDate(n *core.Node, now time.Time) string {
	switch {
	case n.TagTime != nil:
		return n.TagTime.Format(DateLayout)
	case n.Date != nil:
		return n.Date.Format(DateLayout)
	default:
		return now.Format(DateLayout)
	}
}

// ToggleTask sets the completion state of the task with the given item id
// (or node id) on a copy of nb and returns the copy.
func ToggleTask(nb *core.Notebook, itemID string, completed bool) (*core.Notebook, error) {
	if nb == nil || nb.Kind == core.KindText {
		return nil, fmt.Errorf("toggle task %s: %w", itemID, core.ErrNotFound)
	}
	var target string
	walk(nb, func(id string, n *core.Node, _ string) {
		if target == "" && n.Tags.Has(core.TagTodo) && (id == itemID || ItemID(KindTask, id) == itemID) {
			target = id
		}
	})
	if target == "" {
		return nil, fmt.Errorf("toggle task %s: %w", itemID, core.ErrNotFound)
	}

	out := nb.Clone()
	n := out.Nodes[target]
	if n == nil {
		return nil, fmt.Errorf("toggle task %s: %w", itemID, core.ErrNotFound)
	}
	if completed {
		n.Tags = n.Tags.With(core.TagCompleted)
	} else {
		n.Tags = n.Tags.Without(core.TagCompleted)
	}
	return out, nil
}
