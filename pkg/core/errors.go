package core

import "errors"

// Common errors.
var (
	// ErrBridgeUnavailable is returned when no host command layer is wired.
	ErrBridgeUnavailable = errors.New("command bridge unavailable")
	ErrNotFound          = errors.New("not found")
	ErrParse             = errors.New("invalid notebook content")
	ErrNoActiveNote      = errors.New("no active note")
	// ErrNoteMismatch is returned when a notebook is saved under another note's id.
	ErrNoteMismatch = errors.New("notebook belongs to another note")
	// ErrInvalidNoteID is returned for ids not shaped like category#sub#title.
	ErrInvalidNoteID = errors.New("invalid note id")
	// ErrNotEmpty is returned when deleting a category that still holds entries.
	ErrNotEmpty    = errors.New("directory not empty")
	ErrInvalidName = errors.New("invalid name")
	ErrCycle       = errors.New("node tree contains a cycle")
	ErrMissingRoot = errors.New("root node missing")
)
