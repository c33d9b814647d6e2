// Package config persists the user configuration in a durable JSON file
// mirrored into a local key/value cache.
//
// Load never fails: it prefers the file, falls back to the cache and finally
// to the default configuration, healing whichever layer was missing. Save
// treats the cache as best-effort and the file as authoritative.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/mindvault/internal/fsutil"
	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/kv"
)

const (
	// FileName is the configuration file stored in the application-data directory.
	FileName = "app-config.json"
	// CacheKey is the cache entry mirroring the file.
	CacheKey = "userConfig"

	testWorkspace    = "__test__"
	testTimestampKey = "_testTimestamp"
	testNonceKey     = "_testNonce"
)

// Config holds the store's collaborators.
type Config struct {
	// Dir overrides the directory holding the configuration file.
	Dir    string
	Dirs   core.PlatformDirs
	Cache  kv.Store
	Logger *slog.Logger
	Now    func() time.Time
}

// Store is the configuration store.
type Store struct {
	config Config

	// mu serializes TestStorage against itself; Load and Save stay lock-free.
	mu sync.Mutex
}

// New creates a configuration store. A nil Cache disables the mirror.
func New(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Store{config: config}
}

// Path returns the configuration file location.
func (s *Store) Path() string {
	if s.config.Dir != "" {
		return filepath.Join(s.config.Dir, FileName)
	}
	if s.config.Dirs != nil {
		if dir, err := s.config.Dirs.AppDataDir(); err == nil && dir != "" {
			return filepath.Join(dir, FileName)
		}
		s.config.Logger.Warn("app data dir unavailable, config stays in working directory")
	}
	return filepath.Join(".", FileName)
}

// Load returns the stored configuration. It never fails.
func (s *Store) Load(ctx context.Context) core.UserConfig {
	p := s.Path()

	cfg, err := readFile(p)
	if err == nil {
		s.mirror(ctx, cfg)
		return cfg
	}
	if !errors.Is(err, os.ErrNotExist) {
		s.config.Logger.Warn("config file unreadable, trying cache", "path", p, "error", err)
	}

	if cfg, ok := s.fromCache(ctx); ok {
		if err := s.Save(ctx, cfg); err != nil {
			s.config.Logger.Warn("failed to restore config file from cache", "path", p, "error", err)
		}
		return cfg
	}

	cfg = core.DefaultUserConfig()
	if err := s.Save(ctx, cfg); err != nil {
		s.config.Logger.Warn("failed to persist default config", "path", p, "error", err)
	}
	return cfg
}

// Save writes cfg to the cache and then to the file. Only file failures
// are returned.
func (s *Store) Save(ctx context.Context, cfg core.UserConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("save config: encode: %w", err)
	}
	if s.config.Cache != nil {
		if err := s.config.Cache.Set(ctx, CacheKey, string(data)); err != nil {
			s.config.Logger.Warn("failed to update config cache", "error", err)
		}
	}

	p := s.Path()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("save config %s: %w", p, err)
	}
	if err := fsutil.WriteFileAtomic(p, data, 0644); err != nil {
		return fmt.Errorf("save config %s: %w", p, err)
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("save config %s: file missing after write: %w", p, err)
	}
	s.config.Logger.Debug("config saved", "path", p)
	return nil
}

// TestStorage round-trips a sentinel configuration and reports whether it
// came back unchanged. The previous configuration is written back afterwards.
func (s *Store) TestStorage(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.Load(ctx)
	defer func() {
		if err := s.Save(ctx, previous); err != nil {
			s.config.Logger.Error("failed to restore config after storage test", "error", err)
		}
	}()

	sentinel := core.UserConfig{
		WorkspacePath: testWorkspace,
		Extra: map[string]any{
			testTimestampKey: s.config.Now().UnixMilli(),
			testNonceKey:     uuid.NewString(),
		},
	}
	if err := s.Save(ctx, sentinel); err != nil {
		s.config.Logger.Error("config storage test failed", "error", err)
		return false
	}
	ok := s.Load(ctx).Equal(sentinel)
	s.config.Logger.Info("config storage test", "ok", ok)
	return ok
}

func (s *Store) mirror(ctx context.Context, cfg core.UserConfig) {
	if s.config.Cache == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err == nil {
		err = s.config.Cache.Set(ctx, CacheKey, string(data))
	}
	if err != nil {
		s.config.Logger.Warn("failed to sync config cache", "error", err)
	}
}

func (s *Store) fromCache(ctx context.Context) (core.UserConfig, bool) {
	if s.config.Cache == nil {
		return core.UserConfig{}, false
	}
	raw, ok, err := s.config.Cache.Get(ctx, CacheKey)
	if err != nil {
		s.config.Logger.Warn("failed to read config cache", "error", err)
		return core.UserConfig{}, false
	}
	if !ok {
		return core.UserConfig{}, false
	}
	var cfg core.UserConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.config.Logger.Warn("config cache is corrupt", "error", err)
		return core.UserConfig{}, false
	}
	return cfg, true
}

func readFile(p string) (core.UserConfig, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return core.UserConfig{}, err
	}
	var cfg core.UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return core.UserConfig{}, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	return cfg, nil
}
