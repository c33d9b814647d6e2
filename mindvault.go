package mindvault

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/mindvault/internal/platform"
	"github.com/aretw0/mindvault/pkg/app"
	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/kv"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// --- Types ---

// App is a running application: coordinator, storage, settings and bridge.
type App = platform.App

// Snapshot is a point-in-time copy of the application state.
type Snapshot = app.Snapshot

// --- Configuration ---

// Option defines a functional option for configuring mindvault.
type Option = platform.Option

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithBridge replaces the file-system bridge, e.g. with a remote one.
func WithBridge(b core.Bridge) Option {
	return platform.WithBridge(b)
}

// WithPlatformDirs overrides where the application data directory is.
func WithPlatformDirs(d core.PlatformDirs) Option {
	return platform.WithPlatformDirs(d)
}

// WithConfigDir sets the directory holding app-config.json.
func WithConfigDir(dir string) Option {
	return platform.WithConfigDir(dir)
}

// WithWorkspace opens path for this process without saving it to the config.
func WithWorkspace(path string) Option {
	return platform.WithWorkspace(path)
}

// WithCache injects the key-value store mirroring the configuration.
func WithCache(store kv.Store) Option {
	return platform.WithCache(store)
}

// WithVersioning enables or disables committing workspace changes to git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithDevSafety keeps `go run` and `go test` processes inside a temp sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithAutoSaveDelay sets the quiet period before editor changes are saved.
func WithAutoSaveDelay(d time.Duration) Option {
	return platform.WithAutoSaveDelay(d)
}

// WithRefreshDelay sets the quiet period before a watched workspace is re-listed.
func WithRefreshDelay(d time.Duration) Option {
	return platform.WithRefreshDelay(d)
}

// --- Factory ---

// New creates the application and loads the configured workspace.
func New(ctx context.Context, opts ...Option) (*App, error) {
	return platform.New(ctx, opts...)
}

// --- Safety & Utils ---

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
