package core

import (
	"fmt"
	"time"
)

// EventType classifies workspace changes.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event reports a change to a file or directory inside the workspace.
type Event struct {
	Type EventType
	// Path is relative to the workspace root, slash-separated.
	Path      string
	Dir       bool
	Timestamp time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Path)
}
