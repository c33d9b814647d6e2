// Package fs implements core.Bridge on top of a directory tree: categories
// are directories under the workspace root, subcategories are directories
// inside them, and notebooks are .json (mind map) or .md (plain text) files.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/mindvault/internal/fsutil"
	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/git"
)

// DefaultExtensions are the notebook file extensions the bridge lists.
var DefaultExtensions = []string{".json", ".md"}

// DefaultIgnore are slash-separated patterns, relative to the workspace
// root, that are never listed as categories or notes nor reported by Watch.
var DefaultIgnore = []string{
	"**/.*",
	"**/.*/**",
	"**/" + fsutil.TempFilePrefix + "*",
}

// Config holds the configuration for the filesystem bridge.
type Config struct {
	Logger *slog.Logger
	// Versioned commits every change to a git repository at the workspace root.
	Versioned bool
	// GitAuthorName and GitAuthorEmail override the committer identity.
	GitAuthorName  string
	GitAuthorEmail string
	Extensions     []string
	Ignore         []string
	// WatchDebounce is the quiet period applied per path by Watch.
	WatchDebounce time.Duration
}

// Bridge implements core.Bridge, core.WorkspaceInitializer and core.Watcher.
type Bridge struct {
	config Config

	mu       sync.RWMutex
	roots    map[string]*git.Client
	watchers int
}

var (
	_ core.Bridge               = (*Bridge)(nil)
	_ core.WorkspaceInitializer = (*Bridge)(nil)
	_ core.Watcher              = (*Bridge)(nil)
)

// NewBridge creates a filesystem bridge.
func NewBridge(config Config) *Bridge {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if len(config.Extensions) == 0 {
		config.Extensions = DefaultExtensions
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	if config.WatchDebounce <= 0 {
		config.WatchDebounce = 50 * time.Millisecond
	}
	return &Bridge{
		config: config,
		roots:  make(map[string]*git.Client),
	}
}

// InitWorkspace creates the workspace root and, when versioning is enabled,
// makes it a git repository that ignores the bridge's lock file.
func (b *Bridge) InitWorkspace(ctx context.Context, dataDir string) error {
	root, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	if !b.config.Versioned {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("versioning requested but git is not installed")
	}

	client := git.NewClient(root, b.config.Logger)
	client.AuthorName = b.config.GitAuthorName
	client.AuthorEmail = b.config.GitAuthorEmail

	if !client.IsRepo() {
		if err := client.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
	}
	modified, err := ensureIgnore(root, git.LockFile)
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if modified {
		if err := b.commit(ctx, client, "chore: configure workspace ignore", ".gitignore"); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.roots[root] = client
	b.mu.Unlock()
	b.config.Logger.Debug("workspace initialized", "root", root, "versioned", true)
	return nil
}

func ensureIgnore(root, entry string) (bool, error) {
	ignorePath := filepath.Join(root, ".gitignore")
	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == entry {
			return false, nil
		}
	}

	prefix := ""
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		prefix = "\n"
	}
	data := append(content, []byte(prefix+entry+"\n")...)
	return true, fsutil.WriteFileAtomic(ignorePath, data, 0644)
}

// ReadNote returns the raw content of a notebook file.
func (b *Bridge) ReadNote(ctx context.Context, p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("read %s: %w", p, core.ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// SaveNote writes content atomically, creating parent directories.
func (b *Bridge) SaveNote(ctx context.Context, p, content string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := fsutil.WriteFileAtomic(p, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	b.config.Logger.Debug("note saved", "path", p, "bytes", len(content))
	return b.version(ctx, p, "update "+strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)))
}

// GetAllNotes lists notebooks directly inside categories and inside
// subcategories, most recently modified first. A missing workspace is
// created and reported as empty.
func (b *Bridge) GetAllNotes(ctx context.Context, dataDir string) ([]core.BackendNote, error) {
	if created, err := ensureDir(dataDir); err != nil || created {
		return nil, err
	}

	fsys := os.DirFS(dataDir)
	var matches []string
	for _, pattern := range []string{"*/*", "*/*/*"} {
		found, err := doublestar.Glob(fsys, pattern+b.extensionPattern(), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to scan notes: %w", err)
		}
		matches = append(matches, found...)
	}

	type entry struct {
		note    core.BackendNote
		modTime time.Time
	}
	entries := make([]entry, 0, len(matches))
	for _, rel := range matches {
		if b.ignored(rel) {
			continue
		}
		parts := strings.Split(rel, "/")
		title := strings.TrimSuffix(parts[len(parts)-1], path.Ext(rel))
		n := core.BackendNote{
			Title:      title,
			Path:       filepath.Join(dataDir, filepath.FromSlash(rel)),
			CategoryID: parts[0],
		}
		if len(parts) == 3 {
			n.SubCategoryID = parts[1]
		}
		n.ID = core.NoteID(n.CategoryID, n.SubCategoryID, title)

		var mod time.Time
		if info, err := fs.Stat(fsys, rel); err == nil {
			mod = info.ModTime()
			n.LastUpdated = mod.Format(time.RFC3339Nano)
		}
		entries = append(entries, entry{note: n, modTime: mod})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return strings.Compare(a.note.ID, b.note.ID)
	})
	notes := make([]core.BackendNote, len(entries))
	for i, e := range entries {
		notes[i] = e.note
	}
	b.config.Logger.Debug("notes scanned", "root", dataDir, "count", len(notes))
	return notes, nil
}

// GetAllCategories lists category directories with their subcategory
// directories, most recently modified first at both levels.
func (b *Bridge) GetAllCategories(ctx context.Context, dataDir string) ([]core.BackendCategory, error) {
	if created, err := ensureDir(dataDir); err != nil || created {
		return nil, err
	}

	catDirs, err := b.listDirs(dataDir, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	categories := make([]core.BackendCategory, 0, len(catDirs))
	for _, cd := range catDirs {
		subDirs, err := b.listDirs(filepath.Join(dataDir, cd.name), cd.name+"/")
		if err != nil {
			return nil, fmt.Errorf("failed to read category %s: %w", cd.name, err)
		}
		subs := make([]core.BackendSubCategory, 0, len(subDirs))
		for _, sd := range subDirs {
			subs = append(subs, core.BackendSubCategory{
				ID:          sd.name,
				Name:        sd.name,
				ParentID:    cd.name,
				CreatedTime: sd.modTime.Format(time.RFC3339Nano),
			})
		}
		categories = append(categories, core.BackendCategory{
			ID:            cd.name,
			Name:          cd.name,
			SubCategories: subs,
			CreatedTime:   cd.modTime.Format(time.RFC3339Nano),
		})
	}
	return categories, nil
}

type dirEntry struct {
	name    string
	modTime time.Time
}

// listDirs returns the non-ignored subdirectories of dir, newest first.
// prefix is the slash path of dir relative to the workspace root.
func (b *Bridge) listDirs(dir, prefix string) ([]dirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []dirEntry
	for _, e := range entries {
		if !e.IsDir() || b.ignored(prefix+e.Name()) {
			continue
		}
		var mod time.Time
		if info, err := e.Info(); err == nil {
			mod = info.ModTime()
		}
		out = append(out, dirEntry{name: e.Name(), modTime: mod})
	}
	slices.SortStableFunc(out, func(a, b dirEntry) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	return out, nil
}

// CreateCategory creates the category directory; the name is the id.
func (b *Bridge) CreateCategory(ctx context.Context, dataDir, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dataDir, name), 0755); err != nil {
		return "", fmt.Errorf("failed to create category directory: %w", err)
	}
	return name, nil
}

// CreateSubcategory creates the subcategory directory inside its category.
func (b *Bridge) CreateSubcategory(ctx context.Context, dataDir, categoryID, name string) (string, error) {
	if err := validateName(categoryID); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}
	catDir := filepath.Join(dataDir, categoryID)
	if info, err := os.Stat(catDir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("category %q: %w", categoryID, core.ErrNotFound)
	}
	if err := os.MkdirAll(filepath.Join(catDir, name), 0755); err != nil {
		return "", fmt.Errorf("failed to create subcategory directory: %w", err)
	}
	return name, nil
}

// DeleteCategory removes an empty category directory.
func (b *Bridge) DeleteCategory(ctx context.Context, dataDir, categoryID string) error {
	if err := validateName(categoryID); err != nil {
		return err
	}
	dir := filepath.Join(dataDir, categoryID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("category %q: %w", categoryID, core.ErrNotFound)
		}
		return fmt.Errorf("failed to read category directory: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("category %q: %w", categoryID, core.ErrNotEmpty)
	}
	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("failed to remove category directory: %w", err)
	}
	return nil
}

// DeleteSubcategory removes a subcategory directory and everything in it.
func (b *Bridge) DeleteSubcategory(ctx context.Context, dataDir, categoryID, subCategoryID string) error {
	if err := validateName(categoryID); err != nil {
		return err
	}
	if err := validateName(subCategoryID); err != nil {
		return err
	}
	dir := filepath.Join(dataDir, categoryID, subCategoryID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("subcategory %q: %w", subCategoryID, core.ErrNotFound)
		}
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove subcategory directory: %w", err)
	}
	return b.version(ctx, dir, fmt.Sprintf("delete %s/%s", categoryID, subCategoryID))
}

// DeleteNote resolves the note file from its id and removes it.
func (b *Bridge) DeleteNote(ctx context.Context, dataDir, noteID string) error {
	categoryID, subCategoryID, title, err := core.ParseNoteID(noteID)
	if err != nil {
		return err
	}
	dir := filepath.Join(dataDir, categoryID)
	if subCategoryID != "" {
		dir = filepath.Join(dir, subCategoryID)
	}

	for _, ext := range b.config.Extensions {
		p := filepath.Join(dir, title+ext)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("failed to remove note file: %w", err)
		}
		return b.version(ctx, p, "delete "+noteID)
	}
	return fmt.Errorf("note %q: %w", noteID, core.ErrNotFound)
}

// version stages p and commits when p lies in a versioned workspace.
func (b *Bridge) version(ctx context.Context, p, msg string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil
	}
	client := b.clientFor(abs)
	if client == nil {
		return nil
	}
	rel, err := filepath.Rel(client.WorkDir, abs)
	if err != nil {
		return nil
	}
	return b.commit(ctx, client, msg, filepath.ToSlash(rel))
}

func (b *Bridge) commit(ctx context.Context, client *git.Client, msg string, paths ...string) error {
	unlock, err := client.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := client.Stage(ctx, paths...); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}
	if err := client.Commit(ctx, msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// clientFor returns the git client of the deepest versioned root holding p.
func (b *Bridge) clientFor(p string) *git.Client {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var best *git.Client
	for root, c := range b.roots {
		if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
			continue
		}
		if best == nil || len(root) > len(best.WorkDir) {
			best = c
		}
	}
	return best
}

func (b *Bridge) extensionPattern() string {
	if len(b.config.Extensions) == 1 {
		return b.config.Extensions[0]
	}
	return "{" + strings.Join(b.config.Extensions, ",") + "}"
}

func (b *Bridge) ignored(rel string) bool {
	for _, pattern := range b.config.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// ensureDir creates dir when it does not exist and reports whether it did.
func ensureDir(dir string) (bool, error) {
	_, err := os.Stat(dir)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return true, nil
}

// validateName rejects names that would escape the workspace or break
// the '#'-separated note id format.
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
