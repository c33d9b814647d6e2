package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/kv"
)

// options holds the internal configuration of the composition root.
type options struct {
	logger        *slog.Logger
	bridge        core.Bridge
	dirs          core.PlatformDirs
	configDir     string
	workspace     string
	cache         kv.Store
	versioned     bool
	devSafety     bool
	autoSaveDelay time.Duration
	refreshDelay  time.Duration
}

// Option defines a functional option for configuring the application.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBridge injects a host command bridge. The filesystem bridge is used
// when none is given.
func WithBridge(b core.Bridge) Option {
	return func(o *options) {
		o.bridge = b
	}
}

// WithPlatformDirs overrides the application-data directory resolver.
func WithPlatformDirs(d core.PlatformDirs) Option {
	return func(o *options) {
		o.dirs = d
	}
}

// WithConfigDir stores the configuration file and its cache in dir instead
// of the application-data directory.
func WithConfigDir(dir string) Option {
	return func(o *options) {
		o.configDir = dir
	}
}

// WithWorkspace opens path for this process without changing the stored
// configuration.
func WithWorkspace(path string) Option {
	return func(o *options) {
		o.workspace = path
	}
}

// WithCache injects the configuration cache. By default a SQLite file next
// to the configuration is used, or memory when it cannot be opened.
func WithCache(store kv.Store) Option {
	return func(o *options) {
		o.cache = store
	}
}

// WithVersioning commits every workspace change to a git repository.
// Only applies to the default filesystem bridge.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioned = enabled
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
// By default (true) the platform directory is re-rooted into the temp dir
// during development runs.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithAutoSaveDelay sets the quiet period of mind-map auto-save.
func WithAutoSaveDelay(d time.Duration) Option {
	return func(o *options) {
		o.autoSaveDelay = d
	}
}

// WithRefreshDelay sets the quiet period before watched changes reload the index.
func WithRefreshDelay(d time.Duration) Option {
	return func(o *options) {
		o.refreshDelay = d
	}
}
