package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNotebookJSON(t *testing.T) {
	t.Run("Round trip keeps nodes tags and extra attributes", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
		tagTime := now.Add(-time.Hour)
		nb := NewMindMap("work##plan", "plan", now)
		nb.Theme = "classic"
		nb.Nodes["root"].Children = []string{"a"}
		nb.Nodes["a"] = &Node{
			ID:      "a",
			Text:    "write docs",
			Tags:    Tags{TagTodo},
			TagTime: &tagTime,
			Extra:   map[string]any{"hyperlink": "https://example.com"},
		}

		data, err := json.Marshal(nb)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var got Notebook
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}

		if got.ID != nb.ID || got.Title != nb.Title || got.Theme != "classic" {
			t.Errorf("header mismatch: %+v", got)
		}
		if !got.LastUpdated.Equal(now) {
			t.Errorf("lastUpdated = %v, want %v", got.LastUpdated, now)
		}
		a := got.Node("a")
		if a == nil {
			t.Fatal("node a missing")
		}
		if !a.Tags.Has(TagTodo) || len(a.Tags) != 1 {
			t.Errorf("tags = %v", a.Tags)
		}
		if a.TagTime == nil || !a.TagTime.Equal(tagTime) {
			t.Errorf("tag time = %v", a.TagTime)
		}
		if a.Extra["hyperlink"] != "https://example.com" {
			t.Errorf("extra lost: %v", a.Extra)
		}
		if got.Root().Children[0] != "a" {
			t.Errorf("children = %v", got.Root().Children)
		}
	})

	t.Run("Map key is the node identity", func(t *testing.T) {
		raw := `{"id":"x","title":"x","rootId":"r",
			"data":{
				"r":{"data":{"id":"r","text":"root"},"children":["k1","k2"]},
				"k1":{"data":{"id":"stale","text":"one","tag":["todo"]}},
				"k2":{"data":{"id":"stale","text":"two","tag":["todo"]}}}}`
		var nb Notebook
		if err := json.Unmarshal([]byte(raw), &nb); err != nil {
			t.Fatal(err)
		}
		if nb.Node("k1").ID != "k1" || nb.Node("k2").ID != "k2" {
			t.Errorf("ids = %q, %q", nb.Node("k1").ID, nb.Node("k2").ID)
		}
		if _, ok := nb.Node("k1").Extra["id"]; ok {
			t.Error("stale id should not survive in extra")
		}

		var keys []string
		nb.Walk(func(id string, _ *Node, _ int) bool { keys = append(keys, id); return true })
		if len(keys) != 3 {
			t.Errorf("walked %v, want every key once", keys)
		}

		data, err := json.Marshal(&nb)
		if err != nil {
			t.Fatal(err)
		}
		var wire struct {
			Data map[string]struct {
				Data map[string]any `json:"data"`
			} `json:"data"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			t.Fatal(err)
		}
		if got := wire.Data["k2"].Data["id"]; got != "k2" {
			t.Errorf("encoded id = %v, want k2", got)
		}
	})

	t.Run("Legacy tags key is migrated", func(t *testing.T) {
		raw := `{"id":"x","title":"x","rootId":"r","lastUpdated":"2024-01-01T00:00:00Z",
			"data":{"r":{"data":{"id":"r","text":"root","tags":["question"]}}}}`
		var nb Notebook
		if err := json.Unmarshal([]byte(raw), &nb); err != nil {
			t.Fatal(err)
		}
		if !nb.Root().Tags.Has(TagQuestion) {
			t.Errorf("tags = %v", nb.Root().Tags)
		}
		if _, ok := nb.Root().Extra["tags"]; ok {
			t.Error("legacy key should not survive in extra")
		}
	})

	t.Run("Tag key wins over tags", func(t *testing.T) {
		raw := `{"id":"x","title":"x","rootId":"r",
			"data":{"r":{"data":{"text":"root","tag":["todo"],"tags":["project"]}}}}`
		var nb Notebook
		if err := json.Unmarshal([]byte(raw), &nb); err != nil {
			t.Fatal(err)
		}
		tags := nb.Root().Tags
		if !tags.Has(TagTodo) || tags.Has(TagProject) {
			t.Errorf("tags = %v", tags)
		}
	})

	t.Run("String tag and legacy completion marker", func(t *testing.T) {
		raw := `{"id":"x","title":"x","rootId":"r",
			"data":{"r":{"data":{"text":"root","tag":"todo"},"children":["c"]},
			"c":{"data":{"text":"done","tag":["todo","已完成"]}}}}`
		var nb Notebook
		if err := json.Unmarshal([]byte(raw), &nb); err != nil {
			t.Fatal(err)
		}
		if !nb.Root().Tags.Has(TagTodo) {
			t.Errorf("root tags = %v", nb.Root().Tags)
		}
		if !nb.Node("c").Tags.Has(TagCompleted) {
			t.Errorf("child tags = %v", nb.Node("c").Tags)
		}
	})

	t.Run("Node id defaults to its map key", func(t *testing.T) {
		raw := `{"id":"x","title":"x","rootId":"r","data":{"r":{"data":{"text":"root"}}}}`
		var nb Notebook
		if err := json.Unmarshal([]byte(raw), &nb); err != nil {
			t.Fatal(err)
		}
		if nb.Root() == nil || nb.Root().ID != "r" {
			t.Errorf("root = %+v", nb.Root())
		}
	})

	t.Run("Plain date is parsed", func(t *testing.T) {
		raw := `{"id":"x","title":"x","rootId":"r","data":{"r":{"data":{"text":"root","date":"2024-05-06 07:08"}}}}`
		var nb Notebook
		if err := json.Unmarshal([]byte(raw), &nb); err != nil {
			t.Fatal(err)
		}
		d := nb.Root().Date
		if d == nil || d.Format("2006-01-02 15:04") != "2024-05-06 07:08" {
			t.Errorf("date = %v", d)
		}
	})

	t.Run("Text notebook", func(t *testing.T) {
		nb := NewText("a##b", "b", time.Now().UTC())
		nb.Text = "# hello"
		data, err := json.Marshal(nb)
		if err != nil {
			t.Fatal(err)
		}
		var got Notebook
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if got.Kind != KindText || got.Text != "# hello" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("Invalid content is a parse error", func(t *testing.T) {
		var nb Notebook
		err := json.Unmarshal([]byte(`{"id":`), &nb)
		if err == nil {
			t.Fatal("expected error")
		}
		err = nb.UnmarshalJSON([]byte(`{"id":"x","data":{"r":{"data":{"tag":[1]}}}}`))
		if !errors.Is(err, ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})
}

func TestNotebookValidate(t *testing.T) {
	now := time.Now()

	t.Run("Fresh mind map is valid", func(t *testing.T) {
		if err := NewMindMap("id", "t", now).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Missing root", func(t *testing.T) {
		nb := NewMindMap("id", "t", now)
		nb.RootID = "nope"
		if err := nb.Validate(); !errors.Is(err, ErrMissingRoot) {
			t.Errorf("expected ErrMissingRoot, got %v", err)
		}
	})

	t.Run("Cycle is detected and walk terminates", func(t *testing.T) {
		nb := NewMindMap("id", "t", now)
		nb.Nodes["root"].Children = []string{"a"}
		nb.Nodes["a"] = &Node{ID: "a", Children: []string{"root"}}
		if err := nb.Validate(); !errors.Is(err, ErrCycle) {
			t.Errorf("expected ErrCycle, got %v", err)
		}
		visited := 0
		nb.Walk(func(string, *Node, int) bool { visited++; return true })
		if visited != 2 {
			t.Errorf("visited %d nodes, want 2", visited)
		}
	})

	t.Run("Dangling child", func(t *testing.T) {
		nb := NewMindMap("id", "t", now)
		nb.Nodes["root"].Children = []string{"ghost"}
		if err := nb.Validate(); err == nil {
			t.Error("expected error for dangling child")
		}
	})
}

func TestNotebookClone(t *testing.T) {
	nb := NewMindMap("id", "t", time.Now())
	nb.Root().Tags = Tags{TagTodo}
	cp := nb.Clone()
	cp.Root().Tags = cp.Root().Tags.With(TagCompleted)
	cp.Root().Text = "changed"
	if nb.Root().Tags.Has(TagCompleted) || nb.Root().Text == "changed" {
		t.Error("clone shares state with original")
	}
}
