package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/mindvault/pkg/adapters/fs"
	"github.com/aretw0/mindvault/pkg/app"
	"github.com/aretw0/mindvault/pkg/config"
	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/kv"
	"github.com/aretw0/mindvault/pkg/mindmap"
	"github.com/aretw0/mindvault/pkg/storage"
)

// CacheFileName is the SQLite cache kept next to the configuration file.
const CacheFileName = ".mindvault-cache.db"

// App wires the components of a running application together.
type App struct {
	Coordinator *app.Coordinator
	Storage     *storage.Adapter
	Settings    *config.Store
	Bridge      core.Bridge

	cache         kv.Store
	ownsCache     bool
	autoSaveDelay time.Duration
	logger        *slog.Logger
}

// New builds the application and loads the configured workspace.
//
// A workspace that fails to load is logged, not returned: the coordinator
// is Ready either way so the caller can repair the configuration.
//
//	a, err := platform.New(ctx, platform.WithLogger(logger))
//	defer a.Close()
func New(ctx context.Context, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dirs := o.dirs
	if dirs == nil {
		sandbox := o.devSafety && IsDevRun()
		dirs = Dirs{Sandbox: sandbox}
		if sandbox {
			logger.Debug("running in SAFE mode (dev sandbox enabled)", "dir", SandboxPath(AppName))
		}
	}

	bridge := o.bridge
	if bridge == nil {
		bridge = fs.NewBridge(fs.Config{
			Logger:    logger.With("component", "fs-bridge"),
			Versioned: o.versioned,
		})
	}

	configDir := o.configDir
	if configDir == "" {
		if dir, err := dirs.AppDataDir(); err == nil {
			configDir = dir
		}
	}

	a := &App{
		Bridge:        bridge,
		cache:         o.cache,
		autoSaveDelay: o.autoSaveDelay,
		logger:        logger,
	}
	if a.cache == nil {
		a.cache, a.ownsCache = openCache(configDir, logger), true
	}

	a.Storage = storage.New(storage.Config{
		Bridge: bridge,
		Dirs:   dirs,
		Logger: logger.With("component", "storage"),
	})
	a.Settings = config.New(config.Config{
		Dir:    configDir,
		Dirs:   dirs,
		Cache:  a.cache,
		Logger: logger.With("component", "config"),
	})

	watcher, _ := bridge.(core.Watcher)
	a.Coordinator = app.New(app.Config{
		Storage:      a.Storage,
		Settings:     a.Settings,
		Watcher:      watcher,
		Workspace:    o.workspace,
		Logger:       logger.With("component", "coordinator"),
		RefreshDelay: o.refreshDelay,
	})

	if err := a.Coordinator.Start(ctx); err != nil {
		logger.Warn("workspace not loaded", "error", err)
	}
	if ctx.Err() != nil {
		_ = a.Close()
		return nil, fmt.Errorf("start application: %w", ctx.Err())
	}
	return a, nil
}

func openCache(dir string, logger *slog.Logger) kv.Store {
	if dir == "" {
		logger.Warn("no config directory, using in-memory cache")
		return kv.NewMemory()
	}
	store, err := kv.OpenSQLite(filepath.Join(dir, CacheFileName))
	if err != nil {
		logger.Warn("cache unavailable, using in-memory cache", "error", err)
		return kv.NewMemory()
	}
	return store
}

// NewShim connects a mind-map editor to a note: debounced snapshots are
// saved through the coordinator to the note the editor was opened on, even
// after another note becomes active.
func (a *App) NewShim(editor mindmap.Editor) *mindmap.Shim {
	noteID := editor.Snapshot().ID
	if noteID == "" {
		if active := a.Coordinator.Snapshot().ActiveNote; active != nil {
			noteID = active.ID
		}
	}
	return mindmap.New(mindmap.Config{
		Editor: editor,
		Save: func(ctx context.Context, nb *core.Notebook) error {
			return a.Coordinator.SaveNoteTo(ctx, noteID, nb)
		},
		Delay:  a.autoSaveDelay,
		Logger: a.logger.With("component", "mindmap", "note", noteID),
	})
}

// Close stops the coordinator and releases the cache it opened.
func (a *App) Close() error {
	var errs []error
	if a.Coordinator != nil {
		errs = append(errs, a.Coordinator.Close())
	}
	if a.ownsCache && a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	return errors.Join(errs...)
}

// AppState aggregates the state of the introspectable components.
type AppState struct {
	Coordinator any `json:"coordinator"`
	Bridge      any `json:"bridge,omitempty"`
}

// State implements introspection.Introspectable.
func (a *App) State() any {
	s := AppState{Coordinator: a.Coordinator.State()}
	if b, ok := a.Bridge.(introspection.Introspectable); ok {
		s.Bridge = b.State()
	}
	return s
}

// ComponentType implements introspection.Component.
func (a *App) ComponentType() string {
	return "app"
}

var _ introspection.Introspectable = (*App)(nil)
