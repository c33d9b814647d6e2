package core

import "time"

// Category is the top level of the notebook hierarchy. It maps to a
// directory directly under the workspace root.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	CreatedAt     *time.Time    `json:"createdAt,omitempty"`
	SubCategories []SubCategory `json:"subCategories"`
}

// SubCategory is a second-level grouping inside a Category.
type SubCategory struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ParentID  string     `json:"parentId"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	out := c
	out.SubCategories = append([]SubCategory(nil), c.SubCategories...)
	return out
}

// NoteMetadata is the index record of a notebook, distinct from its payload.
type NoteMetadata struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Path          string    `json:"path"`
	CategoryID    string    `json:"categoryId"`
	SubCategoryID string    `json:"subCategoryId,omitempty"`
	LastUpdated   time.Time `json:"lastUpdated"`
	Kind          Kind      `json:"kind"`
}

// InSubCategory reports whether the note lives directly in the given
// subcategory of the given category.
func (m NoteMetadata) InSubCategory(categoryID, subCategoryID string) bool {
	return m.CategoryID == categoryID && m.SubCategoryID == subCategoryID
}
