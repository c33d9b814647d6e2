package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/debounce"
)

// Watch reports changes to notebook files and category directories under
// dataDir. Bursts on the same path are debounced. The returned channel is
// closed after ctx ends and the watcher has shut down.
func (b *Bridge) Watch(ctx context.Context, dataDir string) (<-chan core.Event, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	root, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &watchWorker{
		bridge:  b,
		root:    root,
		watcher: watcher,
		events:  make(chan core.Event, 16),
		group:   debounce.NewGroup(b.config.WatchDebounce),
		logger:  b.config.Logger.With("component", "watcher", "root", root),
	}
	if err := w.addRecursive(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	b.setWatching(1)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		w.logger.Error("watcher stopped", "error", err)
	}))
	return w.events, nil
}

func (b *Bridge) setWatching(delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watchers += delta
}

type watchWorker struct {
	bridge  *Bridge
	root    string
	watcher *fsnotify.Watcher
	events  chan core.Event
	group   *debounce.Group
	logger  *slog.Logger
}

// addRecursive watches dir and every non-ignored directory below it.
func (w *watchWorker) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root {
			if rel, ok := w.rel(p); !ok || w.bridge.ignored(rel) {
				return filepath.SkipDir
			}
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *watchWorker) rel(p string) (string, bool) {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || rel == "." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// run is the main event loop of the watcher goroutine.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			}
		}
		w.group.StopAndWait(5 * time.Second)
		close(w.events)
		w.bridge.setWatching(-1)
	}()
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", wErr)
		}
	}
}

// handle filters, maps and debounces one fsnotify event.
func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	rel, ok := w.rel(event.Name)
	if !ok || w.bridge.ignored(rel) {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		isDir = true
		if event.Has(fsnotify.Create) {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}
	// A removed directory can no longer be stat'ed; extension-less paths
	// are assumed to be category or subcategory directories.
	gone := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if !isDir && !w.isNotebook(rel) && !(gone && filepath.Ext(rel) == "") {
		return
	}

	var t core.EventType
	switch {
	case event.Has(fsnotify.Create):
		t = core.EventCreate
	case event.Has(fsnotify.Write):
		t = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		t = core.EventDelete
	default:
		return
	}

	e := core.Event{Type: t, Path: rel, Dir: isDir, Timestamp: time.Now()}
	w.logger.Debug("event received", "type", t, "path", rel)
	w.group.Trigger(rel, func() {
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) isNotebook(rel string) bool {
	ext := filepath.Ext(rel)
	for _, e := range w.bridge.config.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
