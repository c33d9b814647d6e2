package core

import "context"

// Bridge is the host command layer the storage adapter talks to. Method names
// mirror the host commands (read_note, save_note, ...); every implementation
// must be safe for concurrent use.
type Bridge interface {
	ReadNote(ctx context.Context, path string) (string, error)
	SaveNote(ctx context.Context, path, content string) error
	GetAllNotes(ctx context.Context, dataDir string) ([]BackendNote, error)
	GetAllCategories(ctx context.Context, dataDir string) ([]BackendCategory, error)
	CreateCategory(ctx context.Context, dataDir, name string) (string, error)
	CreateSubcategory(ctx context.Context, dataDir, categoryID, name string) (string, error)
	DeleteCategory(ctx context.Context, dataDir, categoryID string) error
	DeleteSubcategory(ctx context.Context, dataDir, categoryID, subCategoryID string) error
	DeleteNote(ctx context.Context, dataDir, noteID string) error
}

// BackendNote is a note index entry as the bridge reports it.
type BackendNote struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Path          string `json:"path"`
	CategoryID    string `json:"category_id"`
	SubCategoryID string `json:"sub_category_id,omitempty"`
	LastUpdated   string `json:"last_updated"`
}

// BackendCategory is a category as the bridge reports it.
type BackendCategory struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	SubCategories []BackendSubCategory `json:"sub_categories"`
	CreatedTime   string               `json:"created_time"`
}

// BackendSubCategory is a subcategory as the bridge reports it.
type BackendSubCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ParentID    string `json:"parent_id"`
	CreatedTime string `json:"created_time"`
}

// PlatformDirs resolves host-specific directories.
type PlatformDirs interface {
	// AppDataDir returns the per-user application data directory.
	AppDataDir() (string, error)
}

// WorkspaceInitializer is implemented by bridges that prepare a workspace
// root themselves (for example to put it under version control).
type WorkspaceInitializer interface {
	InitWorkspace(ctx context.Context, dataDir string) error
}

// Watcher is implemented by bridges that can report workspace changes.
// The channel is closed once ctx ends.
type Watcher interface {
	Watch(ctx context.Context, dataDir string) (<-chan Event, error)
}
