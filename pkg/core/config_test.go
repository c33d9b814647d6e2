package core

import (
	"encoding/json"
	"testing"
)

func TestUserConfigJSON(t *testing.T) {
	raw := `{"workspacePath":"/notes","theme":{"mode":"dark","fontSize":"large"},"lang":"en","zoom":1.5}`
	var cfg UserConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.WorkspacePath != "/notes" {
		t.Errorf("workspacePath = %q", cfg.WorkspacePath)
	}
	if cfg.Theme == nil || cfg.Theme.Mode != ThemeDark || cfg.Theme.FontSize != FontLarge {
		t.Errorf("theme = %+v", cfg.Theme)
	}
	if cfg.Extra["lang"] != "en" {
		t.Errorf("extra = %v", cfg.Extra)
	}

	out, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var again UserConfig
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatal(err)
	}
	if !cfg.Equal(again) {
		t.Errorf("round trip changed config: %s", out)
	}
}

func TestUserConfigApply(t *testing.T) {
	base := UserConfig{WorkspacePath: "/a", Extra: map[string]any{"k": "v"}}
	path := "/b"
	got := base.Apply(ConfigPatch{WorkspacePath: &path, Extra: map[string]any{"x": "y"}})

	if got.WorkspacePath != "/b" {
		t.Errorf("workspacePath = %q", got.WorkspacePath)
	}
	if got.Extra["k"] != "v" || got.Extra["x"] != "y" {
		t.Errorf("extra = %v", got.Extra)
	}
	if _, ok := base.Extra["x"]; ok {
		t.Error("Apply mutated the receiver")
	}
}

func TestParseNoteID(t *testing.T) {
	cat, sub, title, err := ParseNoteID(NoteID("work", "", "plan"))
	if err != nil || cat != "work" || sub != "" || title != "plan" {
		t.Errorf("got %q %q %q %v", cat, sub, title, err)
	}
	cat, sub, title, err = ParseNoteID("work#q1#a#b")
	if err != nil || cat != "work" || sub != "q1" || title != "a#b" {
		t.Errorf("got %q %q %q %v", cat, sub, title, err)
	}
	if _, _, _, err := ParseNoteID("bogus"); err == nil {
		t.Error("expected error")
	}
}
