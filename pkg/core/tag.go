package core

// Tag is an enumerated label attached to a mind-map node.
// Tags drive the derived views (tasks, questions, projects).
type Tag string

const (
	TagTodo      Tag = "todo"
	TagCompleted Tag = "completed"
	TagQuestion  Tag = "question"
	TagProject   Tag = "project"
	TagProgress  Tag = "progress"
	TagNote      Tag = "note"
)

// legacyTags maps historical on-disk spellings to their canonical tag.
var legacyTags = map[string]Tag{
	"已完成": TagCompleted,
}

// KnownTags lists every tag in display order.
func KnownTags() []Tag {
	return []Tag{TagTodo, TagCompleted, TagQuestion, TagProject, TagProgress, TagNote}
}

// ParseTag resolves a raw tag value, including legacy spellings. Matching is
// exact: case and surrounding spaces count. Unknown values are returned
// as-is with ok=false so they can still be round-tripped.
func ParseTag(raw string) (Tag, bool) {
	if t, ok := legacyTags[raw]; ok {
		return t, true
	}
	for _, t := range KnownTags() {
		if string(t) == raw {
			return t, true
		}
	}
	return Tag(raw), false
}

// Tags is an ordered tag list. Order is preserved on disk but carries no meaning.
type Tags []Tag

// Has reports whether t is present (exact match).
func (ts Tags) Has(t Tag) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// With returns a copy of ts with t appended if missing.
func (ts Tags) With(t Tag) Tags {
	if ts.Has(t) {
		return ts.Clone()
	}
	return append(ts.Clone(), t)
}

// Without returns a copy of ts with every occurrence of t removed.
func (ts Tags) Without(t Tag) Tags {
	out := make(Tags, 0, len(ts))
	for _, x := range ts {
		if x != t {
			out = append(out, x)
		}
	}
	return out
}

// Clone returns an independent copy.
func (ts Tags) Clone() Tags {
	if ts == nil {
		return nil
	}
	out := make(Tags, len(ts))
	copy(out, ts)
	return out
}
