// Package storage translates notebook, category and subcategory operations
// into calls on a core.Bridge and resolves the active workspace root.
//
// List operations degrade (a default category, an empty note list) so a
// caller outside its host keeps working; every write operation returns a
// wrapped error.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/mindvault/pkg/core"
)

const (
	// DefaultFallbackRoot is used when the platform directory cannot be resolved.
	DefaultFallbackRoot = "./data"
	// DefaultCategoryID identifies the synthetic category returned on listing failures.
	DefaultCategoryID   = "default"
	DefaultCategoryName = "Default"
)

// Config holds the adapter's collaborators.
type Config struct {
	Bridge       core.Bridge
	Dirs         core.PlatformDirs
	Logger       *slog.Logger
	FallbackRoot string
	Serializers  map[string]Serializer
	// Now is the clock used to stamp new notebooks.
	Now func() time.Time
}

// Adapter is the notebook storage adapter.
type Adapter struct {
	config Config

	mu         sync.Mutex
	customPath string
	root       string
}

// New creates an adapter. A nil Bridge is allowed: reads degrade and writes
// fail with core.ErrBridgeUnavailable.
func New(config Config) *Adapter {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.FallbackRoot == "" {
		config.FallbackRoot = DefaultFallbackRoot
	}
	if config.Serializers == nil {
		config.Serializers = DefaultSerializers()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Adapter{config: config}
}

// SetCustomPath changes the configured workspace path. An empty path
// reverts to the platform default. The cached root is dropped on change.
func (a *Adapter) SetCustomPath(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p = cleanPath(p)
	if p != a.customPath {
		a.customPath = p
		a.root = ""
	}
}

// ResolveWorkspaceRoot returns the active root: the custom path when set,
// else the platform application-data directory, else the fallback.
func (a *Adapter) ResolveWorkspaceRoot(ctx context.Context) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolveLocked()
}

func (a *Adapter) resolveLocked() string {
	if a.root != "" {
		return a.root
	}
	switch {
	case a.customPath != "":
		a.root = a.customPath
	case a.config.Dirs != nil:
		dir, err := a.config.Dirs.AppDataDir()
		if err == nil && dir != "" {
			a.root = filepath.Clean(dir)
			break
		}
		a.config.Logger.Warn("app data dir unavailable, using fallback", "fallback", a.config.FallbackRoot, "error", err)
		a.root = filepath.Clean(a.config.FallbackRoot)
	default:
		a.root = filepath.Clean(a.config.FallbackRoot)
	}
	return a.root
}

// InitializeWorkspace makes a non-empty customPath the active root and
// ensures the root directory exists.
func (a *Adapter) InitializeWorkspace(ctx context.Context, customPath string) error {
	if customPath != "" {
		a.SetCustomPath(customPath)
	}
	root := a.ResolveWorkspaceRoot(ctx)

	if wi, ok := a.config.Bridge.(core.WorkspaceInitializer); ok {
		if err := wi.InitWorkspace(ctx, root); err != nil {
			return fmt.Errorf("initialize workspace %s: %w", root, err)
		}
	} else if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("initialize workspace %s: %w", root, err)
	}
	a.config.Logger.Info("workspace ready", "root", root)
	return nil
}

func (a *Adapter) bridge() (core.Bridge, error) {
	if a.config.Bridge == nil {
		return nil, core.ErrBridgeUnavailable
	}
	return a.config.Bridge, nil
}

// ListCategories returns the category tree. On any failure it returns a
// single default category.
func (a *Adapter) ListCategories(ctx context.Context) []core.Category {
	fallback := []core.Category{{ID: DefaultCategoryID, Name: DefaultCategoryName, SubCategories: []core.SubCategory{}}}

	b, err := a.bridge()
	if err != nil {
		a.config.Logger.Warn("list categories", "error", err)
		return fallback
	}
	root := a.ResolveWorkspaceRoot(ctx)
	raw, err := b.GetAllCategories(ctx, root)
	if err != nil {
		a.config.Logger.Warn("list categories", "root", root, "error", err)
		return fallback
	}

	out := make([]core.Category, 0, len(raw))
	for _, rc := range raw {
		c := core.Category{
			ID:            rc.ID,
			Name:          rc.Name,
			CreatedAt:     parseTime(rc.CreatedTime),
			SubCategories: make([]core.SubCategory, 0, len(rc.SubCategories)),
		}
		for _, rs := range rc.SubCategories {
			c.SubCategories = append(c.SubCategories, core.SubCategory{
				ID:        rs.ID,
				Name:      rs.Name,
				ParentID:  rs.ParentID,
				CreatedAt: parseTime(rs.CreatedTime),
			})
		}
		out = append(out, c)
	}
	return out
}

// ListNotes returns the flat note index, or an empty list on failure.
func (a *Adapter) ListNotes(ctx context.Context) []core.NoteMetadata {
	b, err := a.bridge()
	if err != nil {
		a.config.Logger.Warn("list notes", "error", err)
		return []core.NoteMetadata{}
	}
	root := a.ResolveWorkspaceRoot(ctx)
	raw, err := b.GetAllNotes(ctx, root)
	if err != nil {
		a.config.Logger.Warn("list notes", "root", root, "error", err)
		return []core.NoteMetadata{}
	}

	out := make([]core.NoteMetadata, 0, len(raw))
	for _, n := range raw {
		m := core.NoteMetadata{
			ID:            n.ID,
			Title:         n.Title,
			Path:          n.Path,
			CategoryID:    n.CategoryID,
			SubCategoryID: n.SubCategoryID,
			Kind:          KindForPath(n.Path),
		}
		if t := parseTime(n.LastUpdated); t != nil {
			m.LastUpdated = *t
		}
		out = append(out, m)
	}
	return out
}

// ReadNotebook loads and parses the notebook stored at p.
func (a *Adapter) ReadNotebook(ctx context.Context, p string) (*core.Notebook, error) {
	b, err := a.bridge()
	if err != nil {
		return nil, fmt.Errorf("read notebook %s: %w", p, err)
	}
	s, err := a.serializer(p)
	if err != nil {
		return nil, fmt.Errorf("read notebook %s: %w", p, err)
	}
	content, err := b.ReadNote(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("read notebook %s: %w", p, err)
	}
	nb, err := s.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("read notebook %s: %w", p, err)
	}

	if err := nb.Validate(); err != nil {
		if errors.Is(err, core.ErrMissingRoot) {
			return nil, fmt.Errorf("read notebook %s: %w: %w", p, core.ErrParse, err)
		}
		a.config.Logger.Warn("notebook structure is damaged", "path", p, "error", err)
	}
	return nb, nil
}

// WriteNotebook serializes nb in the format of p and saves it.
// Mind maps must pass Validate.
func (a *Adapter) WriteNotebook(ctx context.Context, p string, nb *core.Notebook) error {
	b, err := a.bridge()
	if err != nil {
		return fmt.Errorf("write notebook %s: %w", p, err)
	}
	s, err := a.serializer(p)
	if err != nil {
		return fmt.Errorf("write notebook %s: %w", p, err)
	}
	if kind := nb.Kind; kind != s.Kind() && !(kind == "" && s.Kind() == core.KindMindMap) {
		return fmt.Errorf("write notebook %s: %s notebook cannot be stored as %s", p, kind, s.Kind())
	}
	if err := nb.Validate(); err != nil {
		return fmt.Errorf("write notebook %s: %w", p, err)
	}
	data, err := s.Serialize(nb)
	if err != nil {
		return fmt.Errorf("write notebook %s: serialize: %w", p, err)
	}
	if err := b.SaveNote(ctx, p, string(data)); err != nil {
		return fmt.Errorf("write notebook %s: %w", p, err)
	}
	a.config.Logger.Debug("notebook written", "path", p, "bytes", len(data))
	return nil
}

func (a *Adapter) serializer(p string) (Serializer, error) {
	ext := strings.ToLower(filepath.Ext(p))
	s, ok := a.config.Serializers[ext]
	if !ok {
		return nil, fmt.Errorf("no serializer for extension %q", ext)
	}
	return s, nil
}

type createOptions struct {
	kind core.Kind
}

// CreateOption customizes CreateNotebook.
type CreateOption func(*createOptions)

// WithKind selects the notebook kind. Mind map is the default.
func WithKind(kind core.Kind) CreateOption {
	return func(o *createOptions) {
		o.kind = kind
	}
}

// CreateNotebook builds a fresh notebook for the category/subcategory/title
// triple and persists it. An existing notebook with the same triple is
// overwritten.
func (a *Adapter) CreateNotebook(ctx context.Context, title, categoryID, subCategoryID string, opts ...CreateOption) (core.NoteMetadata, error) {
	o := createOptions{kind: core.KindMindMap}
	for _, opt := range opts {
		opt(&o)
	}
	for _, name := range []string{title, categoryID} {
		if err := validateName(name); err != nil {
			return core.NoteMetadata{}, fmt.Errorf("create notebook: %w", err)
		}
	}
	if subCategoryID != "" {
		if err := validateName(subCategoryID); err != nil {
			return core.NoteMetadata{}, fmt.Errorf("create notebook: %w", err)
		}
	}

	root := a.ResolveWorkspaceRoot(ctx)
	dir := filepath.Join(root, categoryID)
	if subCategoryID != "" {
		dir = filepath.Join(dir, subCategoryID)
	}
	p := filepath.Join(dir, title+ExtensionFor(o.kind))

	id := core.NoteID(categoryID, subCategoryID, title)
	now := a.config.Now()
	var nb *core.Notebook
	if o.kind == core.KindText {
		nb = core.NewText(id, title, now)
	} else {
		nb = core.NewMindMap(id, title, now)
	}

	if err := a.WriteNotebook(ctx, p, nb); err != nil {
		return core.NoteMetadata{}, fmt.Errorf("create notebook: %w", err)
	}
	return core.NoteMetadata{
		ID:            id,
		Title:         title,
		Path:          p,
		CategoryID:    categoryID,
		SubCategoryID: subCategoryID,
		LastUpdated:   now,
		Kind:          o.kind,
	}, nil
}

// CreateCategory creates a category and returns its id.
func (a *Adapter) CreateCategory(ctx context.Context, name string) (string, error) {
	b, err := a.bridge()
	if err != nil {
		return "", fmt.Errorf("create category %q: %w", name, err)
	}
	root := a.ResolveWorkspaceRoot(ctx)
	id, err := b.CreateCategory(ctx, root, name)
	if err != nil {
		return "", fmt.Errorf("create category %q: %w", name, err)
	}
	return id, nil
}

// CreateSubcategory creates a subcategory inside categoryID and returns its id.
func (a *Adapter) CreateSubcategory(ctx context.Context, categoryID, name string) (string, error) {
	b, err := a.bridge()
	if err != nil {
		return "", fmt.Errorf("create subcategory %q: %w", name, err)
	}
	root := a.ResolveWorkspaceRoot(ctx)
	id, err := b.CreateSubcategory(ctx, root, categoryID, name)
	if err != nil {
		return "", fmt.Errorf("create subcategory %q: %w", name, err)
	}
	return id, nil
}

// DeleteCategory deletes a category. In-memory state is the caller's concern.
func (a *Adapter) DeleteCategory(ctx context.Context, id string) error {
	b, err := a.bridge()
	if err != nil {
		return fmt.Errorf("delete category %q: %w", id, err)
	}
	root := a.ResolveWorkspaceRoot(ctx)
	if err := b.DeleteCategory(ctx, root, id); err != nil {
		return fmt.Errorf("delete category %q: %w", id, err)
	}
	return nil
}

// DeleteSubcategory deletes a subcategory and its notebooks.
func (a *Adapter) DeleteSubcategory(ctx context.Context, categoryID, id string) error {
	b, err := a.bridge()
	if err != nil {
		return fmt.Errorf("delete subcategory %q: %w", id, err)
	}
	root := a.ResolveWorkspaceRoot(ctx)
	if err := b.DeleteSubcategory(ctx, root, categoryID, id); err != nil {
		return fmt.Errorf("delete subcategory %q: %w", id, err)
	}
	return nil
}

// DeleteNotebook deletes the notebook with the given id.
func (a *Adapter) DeleteNotebook(ctx context.Context, id string) error {
	b, err := a.bridge()
	if err != nil {
		return fmt.Errorf("delete notebook %q: %w", id, err)
	}
	root := a.ResolveWorkspaceRoot(ctx)
	if err := b.DeleteNote(ctx, root, id); err != nil {
		return fmt.Errorf("delete notebook %q: %w", id, err)
	}
	return nil
}

// validateName rejects path segments that would leave their parent
// directory or break the note id.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "",
		name == "." || name == "..",
		strings.ContainsAny(name, `/\`),
		strings.Contains(name, core.NoteIDSeparator):
		return fmt.Errorf("%w: %q", core.ErrInvalidName, name)
	}
	return nil
}

func cleanPath(p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	return filepath.Clean(p)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
