package app_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mindvault/pkg/adapters/fs"
	"github.com/aretw0/mindvault/pkg/app"
	"github.com/aretw0/mindvault/pkg/config"
	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/kv"
	"github.com/aretw0/mindvault/pkg/storage"
	"github.com/aretw0/mindvault/pkg/views"
)

type staticDirs string

func (d staticDirs) AppDataDir() (string, error) { return string(d), nil }

type env struct {
	appData  string
	coord    *app.Coordinator
	settings *config.Store
}

func newEnv(t *testing.T, now func() time.Time) *env {
	t.Helper()
	appData := t.TempDir()
	bridge := fs.NewBridge(fs.Config{WatchDebounce: 10 * time.Millisecond})
	settings := config.New(config.Config{Dir: t.TempDir(), Cache: kv.NewMemory()})
	coord := app.New(app.Config{
		Storage:      storage.New(storage.Config{Bridge: bridge, Dirs: staticDirs(appData), Now: now}),
		Settings:     settings,
		Watcher:      bridge,
		Now:          now,
		RefreshDelay: 10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = coord.Close() })
	return &env{appData: appData, coord: coord, settings: settings}
}

func started(t *testing.T) *env {
	t.Helper()
	e := newEnv(t, nil)
	require.NoError(t, e.coord.Start(context.Background()))
	return e
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("Default workspace", func(t *testing.T) {
		e := newEnv(t, nil)
		assert.Equal(t, app.StatusUninitialized, e.coord.Status())
		require.NoError(t, e.coord.Start(ctx))
		assert.Equal(t, app.StatusReady, e.coord.Status())
		assert.Empty(t, e.coord.Snapshot().Categories)
		assert.Equal(t, "", e.coord.Config().WorkspacePath)
	})

	t.Run("Broken workspace still ends ready", func(t *testing.T) {
		e := newEnv(t, nil)
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))
		require.NoError(t, e.settings.Save(ctx, core.UserConfig{WorkspacePath: filepath.Join(blocker, "ws")}))

		assert.Error(t, e.coord.Start(ctx))
		assert.Equal(t, app.StatusReady, e.coord.Status())
		assert.NotEmpty(t, e.coord.State().(app.CoordinatorState).LastError)
	})
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	e := started(t)

	cat, err := e.coord.CreateCategory(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "work", cat.ID)
	assert.NotNil(t, cat.CreatedAt)

	sub, err := e.coord.CreateSubcategory(ctx, "work", "q1")
	require.NoError(t, err)
	assert.Equal(t, "work", sub.ParentID)

	snap := e.coord.Snapshot()
	require.Len(t, snap.Categories, 1)
	require.Len(t, snap.Categories[0].SubCategories, 1)

	t.Run("Creation errors are returned", func(t *testing.T) {
		_, err := e.coord.CreateCategory(ctx, "a/b")
		assert.ErrorIs(t, err, core.ErrInvalidName)
		_, err = e.coord.CreateSubcategory(ctx, "ghost", "x")
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.Len(t, e.coord.Snapshot().Categories, 1)
	})

	t.Run("Deleting a subcategory drops its notes and the active note", func(t *testing.T) {
		_, err := e.coord.CreateNote(ctx, "plan", "work", "q1")
		require.NoError(t, err)
		require.NotNil(t, e.coord.Snapshot().ActiveNote)

		require.NoError(t, e.coord.DeleteSubcategory(ctx, "work", "q1"))
		snap := e.coord.Snapshot()
		assert.Empty(t, snap.Categories[0].SubCategories)
		assert.Empty(t, snap.Notes)
		assert.Nil(t, snap.ActiveNote)
		assert.Nil(t, snap.ActiveContent)
	})

	t.Run("Non-empty category is kept", func(t *testing.T) {
		_, err := e.coord.CreateNote(ctx, "inbox", "work", "")
		require.NoError(t, err)
		assert.ErrorIs(t, e.coord.DeleteCategory(ctx, "work"), core.ErrNotEmpty)
		assert.Len(t, e.coord.Snapshot().Categories, 1)

		require.NoError(t, e.coord.DeleteNote(ctx, "work##inbox"))
		require.NoError(t, e.coord.DeleteCategory(ctx, "work"))
		snap := e.coord.Snapshot()
		assert.Empty(t, snap.Categories)
		assert.Empty(t, snap.Notes)
	})
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	e := newEnv(t, now)
	require.NoError(t, e.coord.Start(ctx))
	_, err := e.coord.CreateCategory(ctx, "work")
	require.NoError(t, err)

	t.Run("Save needs an active note", func(t *testing.T) {
		err := e.coord.SaveNote(ctx, core.NewMindMap("x", "x", now()))
		assert.ErrorIs(t, err, core.ErrNoActiveNote)
	})

	meta, err := e.coord.CreateNote(ctx, "plan", "work", "")
	require.NoError(t, err)
	_, err = e.coord.CreateNote(ctx, "other", "work", "")
	require.NoError(t, err)

	t.Run("Open by id", func(t *testing.T) {
		require.NoError(t, e.coord.OpenNote(ctx, meta.ID))
		snap := e.coord.Snapshot()
		require.NotNil(t, snap.ActiveNote)
		assert.Equal(t, meta.ID, snap.ActiveNote.ID)
		assert.Equal(t, "plan", snap.ActiveContent.Root().Text)
	})

	t.Run("Unknown id is ignored", func(t *testing.T) {
		require.NoError(t, e.coord.OpenNote(ctx, "work##nope"))
		assert.Equal(t, meta.ID, e.coord.Snapshot().ActiveNote.ID)
	})

	t.Run("Save stamps the time everywhere", func(t *testing.T) {
		mu.Lock()
		clock = clock.Add(time.Hour)
		mu.Unlock()

		nb := e.coord.Snapshot().ActiveContent
		nb.Root().Text = "renamed root"
		require.NoError(t, e.coord.SaveNote(ctx, nb))

		snap := e.coord.Snapshot()
		assert.Equal(t, "renamed root", snap.ActiveContent.Root().Text)
		assert.True(t, snap.ActiveContent.LastUpdated.Equal(now()))
		for _, n := range snap.Notes {
			if n.ID == meta.ID {
				assert.True(t, n.LastUpdated.Equal(now()))
			}
		}
	})

	t.Run("Snapshots are copies", func(t *testing.T) {
		snap := e.coord.Snapshot()
		snap.ActiveContent.Root().Text = "mutated"
		snap.Notes[0].Title = "mutated"
		again := e.coord.Snapshot()
		assert.Equal(t, "renamed root", again.ActiveContent.Root().Text)
		assert.NotEqual(t, "mutated", again.Notes[0].Title)
	})
}

func TestSaveTargetsItsNote(t *testing.T) {
	ctx := context.Background()
	e := started(t)
	_, err := e.coord.CreateCategory(ctx, "work")
	require.NoError(t, err)
	b, err := e.coord.CreateNote(ctx, "b", "work", "")
	require.NoError(t, err)
	a, err := e.coord.CreateNote(ctx, "a", "work", "")
	require.NoError(t, err)

	edited := e.coord.Snapshot().ActiveContent
	edited.Root().Text = "edited in A"
	require.NoError(t, e.coord.OpenNote(ctx, b.ID))

	t.Run("Active note refuses another note's tree", func(t *testing.T) {
		assert.ErrorIs(t, e.coord.SaveNote(ctx, edited), core.ErrNoteMismatch)
	})

	t.Run("Save by id writes the right file", func(t *testing.T) {
		require.NoError(t, e.coord.SaveNoteTo(ctx, a.ID, edited))

		assert.Equal(t, "b", e.coord.Snapshot().ActiveContent.Root().Text, "active content is untouched")
		data, err := os.ReadFile(b.Path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "edited in A")
		data, err = os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "edited in A")
	})

	t.Run("Unknown note", func(t *testing.T) {
		nb := core.NewMindMap("", "x", time.Now())
		assert.ErrorIs(t, e.coord.SaveNoteTo(ctx, "work##ghost", nb), core.ErrNotFound)
	})
}

func TestConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	e := started(t)
	_, err := e.coord.CreateCategory(ctx, "work")
	require.NoError(t, err)
	meta, err := e.coord.CreateNote(ctx, "plan", "work", "")
	require.NoError(t, err)

	base := e.coord.Snapshot().ActiveContent
	a, b := base.Clone(), base.Clone()
	a.Root().Text = "A"
	b.Root().Text = "B"

	var wg sync.WaitGroup
	for _, nb := range []*core.Notebook{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.coord.SaveNote(ctx, nb))
		}()
	}
	wg.Wait()

	require.NoError(t, e.coord.OpenNote(ctx, meta.ID))
	assert.Contains(t, []string{"A", "B"}, e.coord.Snapshot().ActiveContent.Root().Text)
}

func TestUpdateConfig(t *testing.T) {
	ctx := context.Background()
	e := started(t)
	_, err := e.coord.CreateCategory(ctx, "work")
	require.NoError(t, err)

	t.Run("Theme only keeps the workspace", func(t *testing.T) {
		theme := &core.Theme{Mode: core.ThemeDark, FontSize: core.FontMedium}
		require.NoError(t, e.coord.UpdateConfig(ctx, core.ConfigPatch{Theme: theme}))
		assert.Equal(t, theme, e.coord.Config().Theme)
		assert.Len(t, e.coord.Snapshot().Categories, 1)
		assert.Equal(t, theme, e.settings.Load(ctx).Theme)
	})

	t.Run("Workspace change reloads", func(t *testing.T) {
		other := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(other, "home"), 0755))

		require.NoError(t, e.coord.UpdateConfig(ctx, core.ConfigPatch{WorkspacePath: &other}))
		snap := e.coord.Snapshot()
		assert.Equal(t, app.StatusReady, snap.Status)
		require.Len(t, snap.Categories, 1)
		assert.Equal(t, "home", snap.Categories[0].ID)
		assert.NotNil(t, snap.Config.Theme, "earlier fields survive the patch")
	})
}

func TestViewsAndToggle(t *testing.T) {
	ctx := context.Background()
	e := started(t)
	_, err := e.coord.CreateCategory(ctx, "work")
	require.NoError(t, err)
	_, err = e.coord.CreateNote(ctx, "plan", "work", "")
	require.NoError(t, err)

	assert.ErrorIs(t, newEnv(t, nil).coord.ToggleTask(ctx, "x", true), core.ErrNoActiveNote)

	nb := e.coord.Snapshot().ActiveContent
	nb.Root().Children = []string{"t1"}
	nb.Nodes["t1"] = &core.Node{ID: "t1", Text: "write tests", Tags: core.Tags{core.TagTodo}}
	require.NoError(t, e.coord.SaveNote(ctx, nb))

	tasks := e.coord.Views().Tasks
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)

	require.NoError(t, e.coord.ToggleTask(ctx, tasks[0].ID, true))
	assert.True(t, e.coord.Views().Tasks[0].Completed)

	require.NoError(t, e.coord.OpenNote(ctx, "work##plan"))
	assert.True(t, e.coord.Views().Tasks[0].Completed, "toggle is persisted")
	assert.Equal(t, views.ItemID(views.KindTask, "t1"), e.coord.Views().Tasks[0].ID)
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := started(t)
	_, err := e.coord.CreateCategory(ctx, "work")
	require.NoError(t, err)

	require.NoError(t, e.coord.Watch(ctx))
	assert.True(t, e.coord.State().(app.CoordinatorState).Watching)

	p := filepath.Join(e.appData, "work", "external.json")
	data := `{"id":"work##external","title":"external","rootId":"root","data":{"root":{"data":{"id":"root","text":"external"}}}}`
	require.NoError(t, os.WriteFile(p, []byte(data), 0644))

	require.Eventually(t, func() bool {
		for _, n := range e.coord.Snapshot().Notes {
			if n.ID == "work##external" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}
