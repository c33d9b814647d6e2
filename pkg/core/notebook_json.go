package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Reserved keys of a node's attribute bag on disk.
const (
	attrID      = "id"
	attrText    = "text"
	attrTag     = "tag"
	attrTags    = "tags"
	attrTagTime = "tagCreateTime"
	attrDate    = "date"
)

// dateLayouts are tried in order when reading the generic node date.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type wireNotebook struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Kind        Kind                `json:"kind,omitempty"`
	Type        string              `json:"type,omitempty"`
	RootID      string              `json:"rootId,omitempty"`
	LastUpdated string              `json:"lastUpdated,omitempty"`
	Theme       string              `json:"theme,omitempty"`
	Data        map[string]wireNode `json:"data,omitempty"`
	Content     *string             `json:"content,omitempty"`
}

type wireNode struct {
	Data     map[string]any `json:"data"`
	Children []string       `json:"children,omitempty"`
}

// MarshalJSON encodes the notebook in its on-disk shape. Mind maps keep the
// attribute bag layout of the rendering library; tags are always written
// under the canonical "tag" key.
func (nb Notebook) MarshalJSON() ([]byte, error) {
	w := wireNotebook{
		ID:    nb.ID,
		Title: nb.Title,
		Theme: nb.Theme,
	}
	if !nb.LastUpdated.IsZero() {
		w.LastUpdated = nb.LastUpdated.Format(time.RFC3339Nano)
	}

	if nb.Kind == KindText {
		w.Kind = KindText
		text := nb.Text
		w.Content = &text
		return json.Marshal(w)
	}

	w.RootID = nb.RootID
	w.Data = make(map[string]wireNode, len(nb.Nodes))
	for id, n := range nb.Nodes {
		w.Data[id] = encodeNode(id, n)
	}
	return json.Marshal(w)
}

func encodeNode(id string, n *Node) wireNode {
	attrs := make(map[string]any, len(n.Extra)+5)
	maps.Copy(attrs, n.Extra)
	attrs[attrID] = id
	attrs[attrText] = n.Text
	delete(attrs, attrTags)
	if len(n.Tags) > 0 {
		tags := make([]string, len(n.Tags))
		for i, t := range n.Tags {
			tags[i] = string(t)
		}
		attrs[attrTag] = tags
	} else {
		delete(attrs, attrTag)
	}
	if n.TagTime != nil {
		attrs[attrTagTime] = n.TagTime.Format(time.RFC3339Nano)
	}
	if n.Date != nil {
		attrs[attrDate] = n.Date.Format(time.RFC3339Nano)
	}
	return wireNode{Data: attrs, Children: n.Children}
}

// UnmarshalJSON decodes the on-disk shape and normalizes legacy tag storage
// once: "tag" wins over "tags", scalar values become one-element lists and
// historical spellings map to canonical tags.
func (nb *Notebook) UnmarshalJSON(data []byte) error {
	var w wireNotebook
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}

	out := Notebook{
		ID:    w.ID,
		Title: w.Title,
		Kind:  KindMindMap,
		Theme: w.Theme,
	}
	if w.LastUpdated != "" {
		t, err := time.Parse(time.RFC3339Nano, w.LastUpdated)
		if err != nil {
			return fmt.Errorf("%w: lastUpdated: %v", ErrParse, err)
		}
		out.LastUpdated = t
	}

	// "type":"markdown" is how older files marked plain-text notebooks.
	if w.Kind == KindText || w.Type == "markdown" || (w.Data == nil && w.Content != nil) {
		out.Kind = KindText
		if w.Content != nil {
			out.Text = *w.Content
		}
		*nb = out
		return nil
	}

	out.RootID = w.RootID
	if out.RootID == "" {
		out.RootID = DefaultRootID
	}
	out.Nodes = make(map[string]*Node, len(w.Data))
	for key, wn := range w.Data {
		n, err := decodeNode(key, wn)
		if err != nil {
			return fmt.Errorf("%w: node %q: %v", ErrParse, key, err)
		}
		out.Nodes[key] = n
	}
	*nb = out
	return nil
}

func decodeNode(key string, wn wireNode) (*Node, error) {
	n := &Node{ID: key, Children: wn.Children}
	attrs := maps.Clone(wn.Data)
	if attrs == nil {
		return n, nil
	}

	// The map key is the node identity; children reference it. A stale
	// data.id is dropped and rewritten from the key on save.
	delete(attrs, attrID)

	switch v := attrs[attrText].(type) {
	case nil:
	case string:
		n.Text = v
	default:
		n.Text = fmt.Sprint(v)
	}
	delete(attrs, attrText)

	raw, ok := attrs[attrTag]
	if !ok || raw == nil {
		raw = attrs[attrTags]
	}
	tags, err := normalizeTags(raw)
	if err != nil {
		return nil, err
	}
	n.Tags = tags
	delete(attrs, attrTag)
	delete(attrs, attrTags)

	if s, ok := attrs[attrTagTime].(string); ok && s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			n.TagTime = &t
			delete(attrs, attrTagTime)
		}
	}
	if s, ok := attrs[attrDate].(string); ok && s != "" {
		if t, ok := parseDate(s); ok {
			n.Date = &t
			delete(attrs, attrDate)
		}
	}

	if len(attrs) > 0 {
		n.Extra = attrs
	}
	return n, nil
}

// normalizeTags accepts a list of strings, a single string or nothing.
func normalizeTags(raw any) (Tags, error) {
	var values []string
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		values = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tag value %v is not a string", item)
			}
			values = append(values, s)
		}
	default:
		return nil, fmt.Errorf("unsupported tag value %T", raw)
	}

	var tags Tags
	for _, s := range values {
		t, _ := ParseTag(s)
		if t == "" || tags.Has(t) {
			continue
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
