// Package app holds the application state coordinator: the single owner of
// the in-memory category list, note index, active note and user
// configuration, and the only path through which they change.
//
// The coordinator's mutex protects memory only and is never held across
// storage I/O. Overlapping saves of the same notebook are therefore
// last-write-wins with no ordering guarantee; one editing session per
// notebook is assumed.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/mindvault/pkg/config"
	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/debounce"
	"github.com/aretw0/mindvault/pkg/storage"
	"github.com/aretw0/mindvault/pkg/views"
)

// Status is the workspace lifecycle state.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
)

// DefaultRefreshDelay is the quiet period before a watched change reloads the index.
const DefaultRefreshDelay = 200 * time.Millisecond

// Config holds the coordinator's collaborators. Storage and Settings are required.
type Config struct {
	Storage  *storage.Adapter
	Settings *config.Store
	// Watcher is optional; Watch fails without it.
	Watcher core.Watcher
	// Workspace overrides the configured workspace path until the
	// configuration changes it.
	Workspace    string
	Logger       *slog.Logger
	Now          func() time.Time
	RefreshDelay time.Duration
}

// Snapshot is a deep copy of the coordinator state.
type Snapshot struct {
	Status        Status              `json:"status"`
	Categories    []core.Category     `json:"categories"`
	Notes         []core.NoteMetadata `json:"notes"`
	ActiveNote    *core.NoteMetadata  `json:"activeNote,omitempty"`
	ActiveContent *core.Notebook      `json:"activeContent,omitempty"`
	Config        core.UserConfig     `json:"config"`
}

// Coordinator is the application state coordinator.
type Coordinator struct {
	config  Config
	refresh *debounce.Debouncer

	mu         sync.RWMutex
	status     Status
	categories []core.Category
	notes      []core.NoteMetadata
	active     *core.NoteMetadata
	content    *core.Notebook
	user       core.UserConfig
	override   string
	watching   bool
	lastErr    string
}

// New creates an uninitialized coordinator. Call Start to load it.
func New(config Config) *Coordinator {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.RefreshDelay <= 0 {
		config.RefreshDelay = DefaultRefreshDelay
	}
	return &Coordinator{
		config:     config,
		refresh:    debounce.New(config.RefreshDelay),
		status:     StatusUninitialized,
		override:   config.Workspace,
		categories: []core.Category{},
		notes:      []core.NoteMetadata{},
	}
}

// Start loads the user configuration and then the workspace it points to.
// The coordinator is Ready afterwards even when loading failed, so recovery
// actions stay possible; the error is returned for reporting.
func (c *Coordinator) Start(ctx context.Context) error {
	cfg := c.config.Settings.Load(ctx)
	c.mu.Lock()
	c.user = cfg
	c.mu.Unlock()
	return c.LoadWorkspace(ctx)
}

// Status returns the workspace lifecycle state.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Config returns a copy of the user configuration.
func (c *Coordinator) Config() core.UserConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user.Clone()
}

// LoadWorkspace clears the active note and the index, initializes the
// configured workspace and reloads categories and notes.
func (c *Coordinator) LoadWorkspace(ctx context.Context) error {
	c.mu.Lock()
	c.status = StatusLoading
	c.active = nil
	c.content = nil
	c.categories = []core.Category{}
	c.notes = []core.NoteMetadata{}
	path := c.user.WorkspacePath
	if c.override != "" {
		path = c.override
	}
	c.mu.Unlock()

	err := c.loadWorkspace(ctx, path)

	c.mu.Lock()
	c.status = StatusReady
	c.lastErr = ""
	if err != nil {
		c.lastErr = err.Error()
	}
	c.mu.Unlock()

	if err != nil {
		c.config.Logger.Error("workspace load failed", "path", path, "error", err)
		return err
	}
	return nil
}

func (c *Coordinator) loadWorkspace(ctx context.Context, path string) error {
	c.config.Storage.SetCustomPath(path)
	if err := c.config.Storage.InitializeWorkspace(ctx, ""); err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}
	categories := c.config.Storage.ListCategories(ctx)
	notes := c.config.Storage.ListNotes(ctx)

	c.mu.Lock()
	c.categories = categories
	c.notes = notes
	c.mu.Unlock()
	c.config.Logger.Info("workspace loaded",
		"root", c.config.Storage.ResolveWorkspaceRoot(ctx),
		"categories", len(categories),
		"notes", len(notes))
	return nil
}

// RefreshNotes reloads categories and the note index from storage without
// touching the active note.
func (c *Coordinator) RefreshNotes(ctx context.Context) {
	categories := c.config.Storage.ListCategories(ctx)
	notes := c.config.Storage.ListNotes(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = categories
	c.notes = notes
}

// CreateCategory persists a category and appends it to the in-memory list.
func (c *Coordinator) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	id, err := c.config.Storage.CreateCategory(ctx, name)
	if err != nil {
		c.config.Logger.Error("create category failed", "name", name, "error", err)
		return core.Category{}, err
	}
	now := c.config.Now()
	cat := core.Category{ID: id, Name: name, CreatedAt: &now, SubCategories: []core.SubCategory{}}

	c.mu.Lock()
	c.categories = append(c.categories, cat)
	c.mu.Unlock()
	return cat.Clone(), nil
}

// CreateSubcategory persists a subcategory and appends it to its parent in memory.
func (c *Coordinator) CreateSubcategory(ctx context.Context, categoryID, name string) (core.SubCategory, error) {
	id, err := c.config.Storage.CreateSubcategory(ctx, categoryID, name)
	if err != nil {
		c.config.Logger.Error("create subcategory failed", "category", categoryID, "name", name, "error", err)
		return core.SubCategory{}, err
	}
	now := c.config.Now()
	sub := core.SubCategory{ID: id, Name: name, ParentID: categoryID, CreatedAt: &now}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.categories, func(cat core.Category) bool { return cat.ID == categoryID })
	if i < 0 {
		c.config.Logger.Warn("subcategory parent not loaded", "category", categoryID)
		return sub, nil
	}
	c.categories[i].SubCategories = append(c.categories[i].SubCategories, sub)
	return sub, nil
}

// DeleteCategory deletes a category. Its notes leave the index and the
// active note is cleared when it lived inside.
func (c *Coordinator) DeleteCategory(ctx context.Context, id string) error {
	if err := c.config.Storage.DeleteCategory(ctx, id); err != nil {
		c.config.Logger.Error("delete category failed", "category", id, "error", err)
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = slices.DeleteFunc(c.categories, func(cat core.Category) bool { return cat.ID == id })
	c.dropNotesLocked(func(n core.NoteMetadata) bool { return n.CategoryID == id })
	return nil
}

// DeleteSubcategory deletes a subcategory together with its notes.
func (c *Coordinator) DeleteSubcategory(ctx context.Context, categoryID, id string) error {
	if err := c.config.Storage.DeleteSubcategory(ctx, categoryID, id); err != nil {
		c.config.Logger.Error("delete subcategory failed", "category", categoryID, "subcategory", id, "error", err)
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.categories {
		if c.categories[i].ID != categoryID {
			continue
		}
		c.categories[i].SubCategories = slices.DeleteFunc(c.categories[i].SubCategories, func(s core.SubCategory) bool {
			return s.ID == id
		})
	}
	c.dropNotesLocked(func(n core.NoteMetadata) bool { return n.InSubCategory(categoryID, id) })
	return nil
}

// DeleteNote deletes a notebook and clears it if it was active.
func (c *Coordinator) DeleteNote(ctx context.Context, id string) error {
	if err := c.config.Storage.DeleteNotebook(ctx, id); err != nil {
		c.config.Logger.Error("delete note failed", "note", id, "error", err)
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropNotesLocked(func(n core.NoteMetadata) bool { return n.ID == id })
	return nil
}

func (c *Coordinator) dropNotesLocked(match func(core.NoteMetadata) bool) {
	c.notes = slices.DeleteFunc(c.notes, match)
	if c.active != nil && match(*c.active) {
		c.active = nil
		c.content = nil
	}
}

// CreateNote persists a new notebook, makes it active and loads its content.
func (c *Coordinator) CreateNote(ctx context.Context, title, categoryID, subCategoryID string, opts ...storage.CreateOption) (core.NoteMetadata, error) {
	c.mu.Lock()
	c.content = nil
	c.mu.Unlock()

	meta, err := c.config.Storage.CreateNotebook(ctx, title, categoryID, subCategoryID, opts...)
	if err != nil {
		c.config.Logger.Error("create note failed", "title", title, "category", categoryID, "error", err)
		return core.NoteMetadata{}, err
	}

	c.mu.Lock()
	c.notes = slices.DeleteFunc(c.notes, func(n core.NoteMetadata) bool { return n.ID == meta.ID })
	c.notes = append(c.notes, meta)
	active := meta
	c.active = &active
	c.mu.Unlock()

	nb, err := c.config.Storage.ReadNotebook(ctx, meta.Path)
	if err != nil {
		c.config.Logger.Error("load created note failed", "note", meta.ID, "error", err)
		return meta, err
	}
	c.setContent(meta.ID, nb)
	return meta, nil
}

// OpenNote loads the notebook with the given id from the in-memory index and
// makes it active. An unknown id is logged and ignored.
func (c *Coordinator) OpenNote(ctx context.Context, id string) error {
	c.mu.Lock()
	i := slices.IndexFunc(c.notes, func(n core.NoteMetadata) bool { return n.ID == id })
	if i < 0 {
		c.mu.Unlock()
		c.config.Logger.Warn("note not found", "note", id)
		return nil
	}
	meta := c.notes[i]
	c.content = nil
	c.mu.Unlock()

	nb, err := c.config.Storage.ReadNotebook(ctx, meta.Path)
	if err != nil {
		c.config.Logger.Error("open note failed", "note", id, "error", err)
		return err
	}

	c.mu.Lock()
	c.active = &meta
	c.content = nb
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) setContent(id string, nb *core.Notebook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.ID == id {
		c.content = nb
	}
}

// SaveNote stamps nb with the current time, persists it to the active note
// and makes it the active content. Overlapping saves are last-write-wins.
func (c *Coordinator) SaveNote(ctx context.Context, nb *core.Notebook) error {
	c.mu.RLock()
	if c.active == nil {
		c.mu.RUnlock()
		return core.ErrNoActiveNote
	}
	id := c.active.ID
	c.mu.RUnlock()
	return c.SaveNoteTo(ctx, id, nb)
}

// SaveNoteTo persists nb to the note with the given id, whether or not it is
// still active. A notebook carrying another note's id is rejected with
// ErrNoteMismatch.
func (c *Coordinator) SaveNoteTo(ctx context.Context, id string, nb *core.Notebook) error {
	if nb.ID != "" && nb.ID != id {
		return fmt.Errorf("save %s as %s: %w", nb.ID, id, core.ErrNoteMismatch)
	}
	c.mu.RLock()
	i := slices.IndexFunc(c.notes, func(n core.NoteMetadata) bool { return n.ID == id })
	if i < 0 {
		c.mu.RUnlock()
		return fmt.Errorf("save %s: %w", id, core.ErrNotFound)
	}
	meta := c.notes[i]
	c.mu.RUnlock()

	saved := nb.Clone()
	saved.LastUpdated = c.config.Now()
	saved.ID = meta.ID
	if err := c.config.Storage.WriteNotebook(ctx, meta.Path, saved); err != nil {
		c.config.Logger.Error("save note failed", "note", meta.ID, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.ID == meta.ID {
		c.content = saved
		c.active.LastUpdated = saved.LastUpdated
	}
	for i := range c.notes {
		if c.notes[i].ID == meta.ID {
			c.notes[i].LastUpdated = saved.LastUpdated
		}
	}
	return nil
}

// UpdateConfig merges patch over the current configuration and persists it.
// A changed workspace path reloads the workspace.
func (c *Coordinator) UpdateConfig(ctx context.Context, patch core.ConfigPatch) error {
	c.mu.RLock()
	current := c.user.Clone()
	c.mu.RUnlock()

	next := current.Apply(patch)
	if err := c.config.Settings.Save(ctx, next); err != nil {
		c.config.Logger.Error("save config failed", "error", err)
		return err
	}

	changed := next.WorkspacePath != current.WorkspacePath
	c.mu.Lock()
	c.user = next
	if changed {
		c.override = ""
	}
	c.mu.Unlock()

	if changed {
		c.config.Logger.Info("workspace path changed", "from", current.WorkspacePath, "to", next.WorkspacePath)
		return c.LoadWorkspace(ctx)
	}
	return nil
}

// Snapshot returns a deep copy of the coordinator state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Status:        c.status,
		Categories:    make([]core.Category, 0, len(c.categories)),
		Notes:         slices.Clone(c.notes),
		ActiveContent: c.content.Clone(),
		Config:        c.user.Clone(),
	}
	if s.Notes == nil {
		s.Notes = []core.NoteMetadata{}
	}
	for _, cat := range c.categories {
		s.Categories = append(s.Categories, cat.Clone())
	}
	if c.active != nil {
		a := *c.active
		s.ActiveNote = &a
	}
	return s
}

// Views derives the task, question and project lists of the active note.
func (c *Coordinator) Views() views.Set {
	c.mu.RLock()
	nb := c.content.Clone()
	c.mu.RUnlock()
	return views.Extract(nb, c.config.Now())
}

// ToggleTask marks a task of the active note completed or not and saves it.
func (c *Coordinator) ToggleTask(ctx context.Context, itemID string, completed bool) error {
	c.mu.RLock()
	nb := c.content
	c.mu.RUnlock()
	if nb == nil {
		return core.ErrNoActiveNote
	}
	updated, err := views.ToggleTask(nb, itemID, completed)
	if err != nil {
		return err
	}
	return c.SaveNote(ctx, updated)
}

// Watch refreshes the index whenever the workspace changes on disk, until
// ctx ends. Bursts of events cause a single refresh.
func (c *Coordinator) Watch(ctx context.Context) error {
	if c.config.Watcher == nil {
		return fmt.Errorf("watch: %w", core.ErrBridgeUnavailable)
	}
	root := c.config.Storage.ResolveWorkspaceRoot(ctx)
	events, err := c.config.Watcher.Watch(ctx, root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	c.mu.Lock()
	c.watching = true
	c.mu.Unlock()

	logger := c.config.Logger.With("component", "workspace-watch", "root", root)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer func() {
			c.mu.Lock()
			c.watching = false
			c.mu.Unlock()
		}()
		for e := range events {
			logger.Debug("workspace changed", "event", e.String())
			c.refresh.Trigger(func() { c.RefreshNotes(ctx) })
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("watch loop stopped", "error", err)
	}))
	return nil
}

// Close stops pending background refreshes.
func (c *Coordinator) Close() error {
	if !c.refresh.StopAndWait(5 * time.Second) {
		return fmt.Errorf("close coordinator: refresh still running")
	}
	return nil
}
