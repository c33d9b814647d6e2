package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/mindvault/pkg/core"
)

// Serializer reads and writes one notebook file format.
type Serializer interface {
	Parse(r io.Reader) (*core.Notebook, error)
	Serialize(nb *core.Notebook) ([]byte, error)
	// Kind is the notebook kind stored in this format.
	Kind() core.Kind
}

// DefaultSerializers returns the serializers keyed by file extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": JSONSerializer{},
		".md":   MarkdownSerializer{},
	}
}

// ExtensionFor returns the file extension used for a notebook kind.
func ExtensionFor(kind core.Kind) string {
	if kind == core.KindText {
		return ".md"
	}
	return ".json"
}

// KindForPath infers the notebook kind from a file name.
func KindForPath(p string) core.Kind {
	if strings.EqualFold(filepath.Ext(p), ".md") {
		return core.KindText
	}
	return core.KindMindMap
}

// JSONSerializer stores mind maps as pretty-printed JSON.
type JSONSerializer struct{}

func (JSONSerializer) Kind() core.Kind { return core.KindMindMap }

func (JSONSerializer) Parse(r io.Reader) (*core.Notebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	nb := &core.Notebook{}
	if err := json.Unmarshal(data, nb); err != nil {
		if !errors.Is(err, core.ErrParse) {
			err = fmt.Errorf("%w: %v", core.ErrParse, err)
		}
		return nil, err
	}
	return nb, nil
}

func (JSONSerializer) Serialize(nb *core.Notebook) ([]byte, error) {
	return json.MarshalIndent(nb, "", "  ")
}

// MarkdownSerializer stores plain-text notebooks as Markdown with a YAML
// frontmatter block carrying the notebook header.
type MarkdownSerializer struct{}

type frontmatter struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Kind        core.Kind `yaml:"kind"`
	LastUpdated time.Time `yaml:"lastUpdated"`
	Theme       string    `yaml:"theme,omitempty"`
}

func (MarkdownSerializer) Kind() core.Kind { return core.KindText }

func (MarkdownSerializer) Parse(r io.Reader) (*core.Notebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	nb := &core.Notebook{Kind: core.KindText}
	if !bytes.HasPrefix(data, []byte("---\n")) {
		nb.Text = string(data)
		return nb, nil
	}

	rest := data[len("---\n"):]
	var head, body []byte
	switch {
	case bytes.HasPrefix(rest, []byte("---\n")):
		body = rest[len("---\n"):]
	default:
		idx := bytes.Index(rest, []byte("\n---\n"))
		if idx < 0 {
			if !bytes.HasSuffix(rest, []byte("\n---")) {
				return nil, fmt.Errorf("%w: frontmatter started but no closing delimiter found", core.ErrParse)
			}
			idx = len(rest) - len("\n---")
			head = rest[:idx]
		} else {
			head = rest[:idx]
			body = rest[idx+len("\n---\n"):]
		}
	}

	var fm frontmatter
	if err := yaml.Unmarshal(head, &fm); err != nil {
		return nil, fmt.Errorf("%w: failed to parse frontmatter: %v", core.ErrParse, err)
	}
	nb.ID = fm.ID
	nb.Title = fm.Title
	nb.LastUpdated = fm.LastUpdated
	nb.Theme = fm.Theme
	nb.Text = string(body)
	return nb, nil
}

func (MarkdownSerializer) Serialize(nb *core.Notebook) ([]byte, error) {
	head, err := yaml.Marshal(frontmatter{
		ID:          nb.ID,
		Title:       nb.Title,
		Kind:        core.KindText,
		LastUpdated: nb.LastUpdated,
		Theme:       nb.Theme,
	})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n")
	buf.WriteString(nb.Text)
	return buf.Bytes(), nil
}
