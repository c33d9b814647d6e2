package core

import (
	"fmt"
	"strings"
)

// NoteIDSeparator joins the segments of a note identifier.
const NoteIDSeparator = "#"

// NoteID builds the deterministic identifier of a notebook:
// "category#subcategory#title", or "category##title" directly in a category.
func NoteID(categoryID, subCategoryID, title string) string {
	return categoryID + NoteIDSeparator + subCategoryID + NoteIDSeparator + title
}

// ParseNoteID splits an identifier produced by NoteID.
// Titles may themselves contain the separator; only the first two split.
func ParseNoteID(id string) (categoryID, subCategoryID, title string, err error) {
	parts := strings.SplitN(id, NoteIDSeparator, 3)
	if len(parts) < 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidNoteID, id)
	}
	return parts[0], parts[1], parts[2], nil
}
