package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/aretw0/mindvault/pkg/core"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change the user configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		// Re-decode into a map so every format sees the flat on-disk keys.
		raw, err := json.Marshal(a.Coordinator.Config())
		if err != nil {
			fatal("Failed to encode config", err)
		}
		var flat map[string]any
		if err := json.Unmarshal(raw, &flat); err != nil {
			fatal("Failed to encode config", err)
		}
		if err := write(flat); err != nil {
			fatal("Failed to encode config", err)
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one configuration value",
	Long: `Change one configuration value. Known keys are workspacePath, theme.mode
(light, dark, system) and theme.fontSize (small, medium, large). Any other key
is stored as a string.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		patch, err := configPatch(a.Coordinator.Config(), args[0], args[1])
		if err != nil {
			fatal("Invalid value", err)
		}
		if err := a.Coordinator.UpdateConfig(ctx, patch); err != nil {
			fatal("Failed to save config", err)
		}
	},
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the configuration can be written and read back",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		if !a.Settings.TestStorage(ctx) {
			fatal("Config storage check failed", fmt.Errorf("%s is not working", a.Settings.Path()))
		}
		fmt.Println("Config storage at", a.Settings.Path(), "is working")
	},
}

func configPatchWorkspace(path string) core.ConfigPatch {
	return core.ConfigPatch{WorkspacePath: &path}
}

func configPatch(current core.UserConfig, key, value string) (core.ConfigPatch, error) {
	theme := core.Theme{Mode: core.ThemeSystem, FontSize: core.FontMedium}
	if current.Theme != nil {
		theme = *current.Theme
	}

	switch key {
	case "workspacePath":
		return configPatchWorkspace(value), nil
	case "theme.mode":
		mode := core.ThemeMode(value)
		if !slices.Contains([]core.ThemeMode{core.ThemeLight, core.ThemeDark, core.ThemeSystem}, mode) {
			return core.ConfigPatch{}, fmt.Errorf("unknown theme mode %q", value)
		}
		theme.Mode = mode
		return core.ConfigPatch{Theme: &theme}, nil
	case "theme.fontSize":
		size := core.FontSize(value)
		if !slices.Contains([]core.FontSize{core.FontSmall, core.FontMedium, core.FontLarge}, size) {
			return core.ConfigPatch{}, fmt.Errorf("unknown font size %q", value)
		}
		theme.FontSize = size
		return core.ConfigPatch{Theme: &theme}, nil
	case "", "theme":
		return core.ConfigPatch{}, fmt.Errorf("key %q cannot be set directly", key)
	default:
		return core.ConfigPatch{Extra: map[string]any{key: value}}, nil
	}
}

func init() {
	configGetCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json, yaml or toml")

	configCmd.AddCommand(configGetCmd, configSetCmd, configTestCmd)
	rootCmd.AddCommand(configCmd)
}
