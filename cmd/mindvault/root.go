package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/mindvault"
)

var (
	verbose   bool
	configDir string
	workspace string
	versioned bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mindvault",
	Short: "A headless engine for mind-map notebooks",
	Long: `mindvault stores mind-map and plain-text notebooks in a category tree on disk
and derives task, question and project lists from node tags.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding app-config.json (default: the application data directory)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace to open for this run, without saving it")
	rootCmd.PersistentFlags().BoolVar(&versioned, "git", false, "Commit every workspace change to git")
}

// openApp builds the application from the global flags.
func openApp(ctx context.Context) *mindvault.App {
	opts := []mindvault.Option{
		mindvault.WithLogger(slog.Default()),
		mindvault.WithVersioning(versioned),
	}
	if configDir != "" {
		opts = append(opts, mindvault.WithConfigDir(configDir))
	}
	if workspace != "" {
		opts = append(opts, mindvault.WithWorkspace(workspace))
	}
	a, err := mindvault.New(ctx, opts...)
	if err != nil {
		fatal("Failed to start", err)
	}
	atExit(func() { _ = a.Close() })
	return a
}

// openNote opens the application with the given note active.
func openNote(ctx context.Context, id string) *mindvault.App {
	a := openApp(ctx)
	if err := a.Coordinator.OpenNote(ctx, id); err != nil {
		fatal("Failed to open note", err)
	}
	if a.Coordinator.Snapshot().ActiveNote == nil {
		fatal("Failed to open note", fmt.Errorf("%q not found", id))
	}
	return a
}
