package mindmap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/debounce"
)

// DefaultAutoSaveDelay is the quiet period after the last change before the
// tree is persisted.
const DefaultAutoSaveDelay = time.Second

// DefaultSummaryText labels generalizations added without text.
const DefaultSummaryText = "Summary"

// SaveFunc persists a snapshot of the edited notebook.
type SaveFunc func(ctx context.Context, nb *core.Notebook) error

// Config holds the shim's collaborators. Editor and Save are required.
type Config struct {
	Editor Editor
	Save   SaveFunc
	Delay  time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

// Shim applies node commands to the active selection and schedules
// debounced persistence after every change.
type Shim struct {
	config Config
	saver  *debounce.Debouncer

	mu      sync.Mutex
	dirty   bool
	lastErr error
	saves   int
}

// New creates a shim around the editor.
func New(config Config) *Shim {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Delay <= 0 {
		config.Delay = DefaultAutoSaveDelay
	}
	return &Shim{config: config, saver: debounce.New(config.Delay)}
}

// Editor returns the wrapped editor.
func (s *Shim) Editor() Editor {
	return s.config.Editor
}

func (s *Shim) active() ([]string, error) {
	ids := s.config.Editor.ActiveNodes()
	if len(ids) == 0 {
		return nil, ErrNoActiveNode
	}
	return ids, nil
}

// each applies fn to every active node and marks the document changed.
func (s *Shim) each(op string, fn func(id string) error) error {
	ids, err := s.active()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, id := range ids {
		if err := fn(id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	s.NotifyChange()
	return nil
}

func (s *Shim) SetText(text string) error {
	return s.each("set text", func(id string) error { return s.config.Editor.SetNodeText(id, text) })
}

func (s *Shim) InsertImage(img Image) error {
	return s.each("insert image", func(id string) error { return s.config.Editor.SetNodeImage(id, img) })
}

func (s *Shim) InsertLink(link Hyperlink) error {
	return s.each("insert link", func(id string) error { return s.config.Editor.SetNodeHyperlink(id, link) })
}

func (s *Shim) InsertNote(note string) error {
	return s.each("insert note", func(id string) error { return s.config.Editor.SetNodeNote(id, note) })
}

// SetTags replaces the tags of the active nodes and stamps the assignment time.
func (s *Shim) SetTags(tags core.Tags) error {
	at := s.config.Now()
	return s.each("set tags", func(id string) error { return s.config.Editor.SetNodeTags(id, tags, at) })
}

// RemoveTag drops one tag from the active nodes, leaving the others.
func (s *Shim) RemoveTag(tag core.Tag) error {
	nb := s.config.Editor.Snapshot()
	at := s.config.Now()
	return s.each("remove tag", func(id string) error {
		n := nb.Node(id)
		if n == nil {
			return fmt.Errorf("%q: %w", id, core.ErrNotFound)
		}
		return s.config.Editor.SetNodeTags(id, n.Tags.Without(tag), at)
	})
}

// AddSummary adds a generalization over the active nodes.
func (s *Shim) AddSummary(text string) error {
	ids, err := s.active()
	if err != nil {
		return fmt.Errorf("add summary: %w", err)
	}
	if text == "" {
		text = DefaultSummaryText
	}
	if err := s.config.Editor.AddGeneralization(ids, text); err != nil {
		return fmt.Errorf("add summary: %w", err)
	}
	s.NotifyChange()
	return nil
}

// AddAssociativeLine links every active node to targetID.
func (s *Shim) AddAssociativeLine(targetID string) error {
	return s.each("add associative line", func(id string) error {
		return s.config.Editor.AddAssociativeLine(id, targetID)
	})
}

// NotifyChange marks the document dirty and restarts the save timer. Call it
// for edits made on the editor directly.
func (s *Shim) NotifyChange() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
	s.saver.Trigger(func() {
		_ = s.persist(context.Background())
	})
}

// Dirty reports whether changes are waiting to be saved.
func (s *Shim) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Err returns the error of the most recent save, if it failed.
func (s *Shim) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Saves returns how many snapshots were persisted successfully.
func (s *Shim) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Shim) persist(ctx context.Context) error {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()

	nb := s.config.Editor.Snapshot()
	err := s.config.Save(ctx, nb)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err != nil {
		s.dirty = true
		s.config.Logger.Error("auto-save failed", "notebook", nb.ID, "error", err)
		return err
	}
	s.saves++
	s.config.Logger.Debug("auto-saved", "notebook", nb.ID)
	return nil
}

// Flush persists pending changes now.
func (s *Shim) Flush(ctx context.Context) error {
	if s.saver.Flush() {
		return s.Err()
	}
	if !s.Dirty() {
		return nil
	}
	return s.persist(ctx)
}

// Close flushes pending changes and stops the timer.
func (s *Shim) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.saver.StopAndWait(5 * time.Second)
	return err
}
