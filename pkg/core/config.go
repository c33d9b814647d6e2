package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// ThemeMode selects the colour scheme.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// FontSize selects the base font size.
type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

// Theme holds the optional appearance settings.
type Theme struct {
	Mode     ThemeMode `json:"mode"`
	FontSize FontSize  `json:"fontSize"`
}

// UserConfig is the process-wide user configuration. Unknown fields are kept
// in Extra and written back flat next to the known ones.
type UserConfig struct {
	WorkspacePath string
	Theme         *Theme
	Extra         map[string]any
}

const (
	configKeyWorkspace = "workspacePath"
	configKeyTheme     = "theme"
)

// DefaultUserConfig returns the configuration used when nothing is stored.
func DefaultUserConfig() UserConfig {
	return UserConfig{}
}

// Clone returns a deep copy of the configuration (Extra values shallowly).
func (c UserConfig) Clone() UserConfig {
	out := c
	if c.Theme != nil {
		t := *c.Theme
		out.Theme = &t
	}
	if c.Extra != nil {
		out.Extra = maps.Clone(c.Extra)
	}
	return out
}

// ConfigPatch is a partial update; nil fields are left unchanged.
type ConfigPatch struct {
	WorkspacePath *string
	Theme         *Theme
	Extra         map[string]any
}

// Apply returns c with the fields set in p replaced. Extra keys are merged
// key by key.
func (c UserConfig) Apply(p ConfigPatch) UserConfig {
	out := c.Clone()
	if p.WorkspacePath != nil {
		out.WorkspacePath = *p.WorkspacePath
	}
	if p.Theme != nil {
		t := *p.Theme
		out.Theme = &t
	}
	if len(p.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(p.Extra))
		}
		maps.Copy(out.Extra, p.Extra)
	}
	return out
}

// Equal compares two configurations by their encoded form.
func (c UserConfig) Equal(other UserConfig) bool {
	a, errA := json.Marshal(c)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (c UserConfig) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(c.Extra)+2)
	maps.Copy(flat, c.Extra)
	flat[configKeyWorkspace] = c.WorkspacePath
	if c.Theme != nil {
		flat[configKeyTheme] = c.Theme
	} else {
		delete(flat, configKeyTheme)
	}
	return json.Marshal(flat)
}

func (c *UserConfig) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	if flat == nil {
		return fmt.Errorf("config must be a JSON object")
	}

	out := UserConfig{}
	if raw, ok := flat[configKeyWorkspace]; ok {
		if err := json.Unmarshal(raw, &out.WorkspacePath); err != nil {
			return fmt.Errorf("%s: %w", configKeyWorkspace, err)
		}
		delete(flat, configKeyWorkspace)
	}
	if raw, ok := flat[configKeyTheme]; ok {
		if string(raw) != "null" {
			var t Theme
			if err := json.Unmarshal(raw, &t); err != nil {
				return fmt.Errorf("%s: %w", configKeyTheme, err)
			}
			out.Theme = &t
		}
		delete(flat, configKeyTheme)
	}
	for k, raw := range flat {
		var v any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(flat))
		}
		out.Extra[k] = v
	}
	*c = out
	return nil
}
