package storage

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/mindvault/pkg/core"
)

func TestMarkdownSerializer(t *testing.T) {
	s := MarkdownSerializer{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
	}{
		{"Empty body", ""},
		{"Body with rule", "# Title\n\n---\n\nafter the rule\n"},
		{"Body without trailing newline", "just text"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nb := core.NewText("a##b", "b", now)
			nb.Text = tc.text
			data, err := s.Serialize(nb)
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			got, err := s.Parse(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got.Text != tc.text {
				t.Errorf("text = %q, want %q", got.Text, tc.text)
			}
			if got.ID != "a##b" || got.Title != "b" || !got.LastUpdated.Equal(now) {
				t.Errorf("header mismatch: %+v", got)
			}
			if got.Kind != core.KindText {
				t.Errorf("kind = %q", got.Kind)
			}
		})
	}

	t.Run("Plain markdown without frontmatter", func(t *testing.T) {
		got, err := s.Parse(strings.NewReader("hello"))
		if err != nil {
			t.Fatal(err)
		}
		if got.Text != "hello" {
			t.Errorf("text = %q", got.Text)
		}
	})

	t.Run("Unclosed frontmatter", func(t *testing.T) {
		_, err := s.Parse(strings.NewReader("---\nid: x\n"))
		if !errors.Is(err, core.ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})
}

func TestJSONSerializerIsPretty(t *testing.T) {
	data, err := JSONSerializer{}.Serialize(core.NewMindMap("a##b", "b", time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("\n  \"")) {
		t.Errorf("expected indented output, got %s", data)
	}
}
