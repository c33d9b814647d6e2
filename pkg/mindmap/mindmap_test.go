package mindmap_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/mindmap"
)

type recorder struct {
	mu    sync.Mutex
	saved []*core.Notebook
	err   error
}

func (r *recorder) save(_ context.Context, nb *core.Notebook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, nb)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func (r *recorder) last() *core.Notebook {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[len(r.saved)-1]
}

func setup(t *testing.T, delay time.Duration) (*mindmap.TreeEditor, *mindmap.Shim, *recorder, string) {
	t.Helper()
	ed, err := mindmap.NewTreeEditor(core.NewMindMap("work##plan", "plan", time.Now()))
	require.NoError(t, err)
	child, err := ed.AddChild(core.DefaultRootID, "child")
	require.NoError(t, err)
	require.NoError(t, ed.Select(child))

	rec := &recorder{}
	shim := mindmap.New(mindmap.Config{Editor: ed, Save: rec.save, Delay: delay})
	t.Cleanup(func() { _ = shim.Close(context.Background()) })
	return ed, shim, rec, child
}

func TestShimCommands(t *testing.T) {
	tagged := time.Date(2024, 2, 3, 4, 5, 0, 0, time.UTC)
	ed, err := mindmap.NewTreeEditor(core.NewMindMap("work##plan", "plan", time.Now()))
	require.NoError(t, err)
	child, err := ed.AddChild(core.DefaultRootID, "child")
	require.NoError(t, err)

	rec := &recorder{}
	shim := mindmap.New(mindmap.Config{Editor: ed, Save: rec.save, Delay: time.Hour, Now: func() time.Time { return tagged }})

	t.Run("Commands need a selection", func(t *testing.T) {
		assert.ErrorIs(t, shim.InsertNote("x"), mindmap.ErrNoActiveNode)
		assert.False(t, shim.Dirty())
	})

	require.NoError(t, ed.Select(child))

	require.NoError(t, shim.InsertImage(mindmap.Image{URL: "https://img", Title: "pic", Width: 10, Height: 20}))
	require.NoError(t, shim.InsertLink(mindmap.Hyperlink{URL: "https://example.com", Title: "site"}))
	require.NoError(t, shim.InsertNote("remember"))
	require.NoError(t, shim.SetTags(core.Tags{core.TagTodo}))
	require.NoError(t, shim.AddSummary(""))
	require.NoError(t, shim.AddAssociativeLine(core.DefaultRootID))
	require.NoError(t, shim.AddAssociativeLine(core.DefaultRootID))
	assert.True(t, shim.Dirty())

	n := ed.Snapshot().Nodes[child]
	assert.Equal(t, "https://img", n.Extra[mindmap.KeyImage])
	assert.Equal(t, "https://example.com", n.Extra[mindmap.KeyHyperlink])
	assert.Equal(t, "remember", n.Extra[mindmap.KeyNote])
	assert.Equal(t, core.Tags{core.TagTodo}, n.Tags)
	require.NotNil(t, n.TagTime)
	assert.True(t, n.TagTime.Equal(tagged))
	assert.Equal(t, []any{map[string]any{"text": mindmap.DefaultSummaryText}}, n.Extra[mindmap.KeyGeneralization])
	assert.Equal(t, []any{core.DefaultRootID}, n.Extra[mindmap.KeyAssociativeLineTargets])

	t.Run("Remove one tag", func(t *testing.T) {
		require.NoError(t, shim.SetTags(core.Tags{core.TagTodo, core.TagCompleted}))
		require.NoError(t, shim.RemoveTag(core.TagCompleted))
		assert.Equal(t, core.Tags{core.TagTodo}, ed.Snapshot().Nodes[child].Tags)
	})

	t.Run("Line to an unknown node", func(t *testing.T) {
		assert.ErrorIs(t, shim.AddAssociativeLine("ghost"), core.ErrNotFound)
	})

	t.Run("Close persists once", func(t *testing.T) {
		require.NoError(t, shim.Close(context.Background()))
		assert.Equal(t, 1, rec.count())
		assert.False(t, shim.Dirty())
		assert.NoError(t, rec.last().Validate())
	})
}

func TestDebounceCoalescesEdits(t *testing.T) {
	_, shim, rec, _ := setup(t, 50*time.Millisecond)

	for i := range 5 {
		require.NoError(t, shim.SetText("draft "+string(rune('a'+i))))
	}
	assert.Equal(t, 0, rec.count(), "nothing saved during the burst")

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, rec.count())

	var text string
	for _, n := range rec.last().Nodes {
		if n.ID != core.DefaultRootID {
			text = n.Text
		}
	}
	assert.Equal(t, "draft e", text)
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	_, shim, rec, _ := setup(t, time.Hour)

	require.NoError(t, shim.Flush(ctx), "clean document")
	assert.Equal(t, 0, rec.count())

	require.NoError(t, shim.InsertNote("now"))
	require.NoError(t, shim.Flush(ctx))
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 1, shim.Saves())

	t.Run("Failed save keeps the document dirty", func(t *testing.T) {
		rec.err = errors.New("disk full")
		require.NoError(t, shim.InsertNote("later"))
		assert.Error(t, shim.Flush(ctx))
		assert.True(t, shim.Dirty())

		rec.err = nil
		require.NoError(t, shim.Flush(ctx))
		assert.False(t, shim.Dirty())
		assert.NoError(t, shim.Err())
	})
}

func TestTreeEditor(t *testing.T) {
	_, err := mindmap.NewTreeEditor(core.NewText("a##b", "b", time.Now()))
	assert.Error(t, err)

	ed, err := mindmap.NewTreeEditor(core.NewMindMap("a##b", "b", time.Now()))
	require.NoError(t, err)
	parent, err := ed.AddChild(core.DefaultRootID, "parent")
	require.NoError(t, err)
	leaf, err := ed.AddChild(parent, "leaf")
	require.NoError(t, err)
	require.NoError(t, ed.Select(parent, leaf))

	assert.ErrorIs(t, ed.Select("ghost"), core.ErrNotFound)
	assert.Error(t, ed.RemoveNode(core.DefaultRootID))

	require.NoError(t, ed.RemoveNode(parent))
	nb := ed.Snapshot()
	assert.Len(t, nb.Nodes, 1)
	assert.Empty(t, nb.Root().Children)
	assert.Empty(t, ed.ActiveNodes())
	assert.NoError(t, nb.Validate())

	t.Run("Clearing tags clears the tag time", func(t *testing.T) {
		require.NoError(t, ed.SetNodeTags(core.DefaultRootID, core.Tags{core.TagNote}, time.Now()))
		require.NoError(t, ed.SetNodeTags(core.DefaultRootID, nil, time.Now()))
		assert.Nil(t, ed.Snapshot().Root().TagTime)
	})
}
