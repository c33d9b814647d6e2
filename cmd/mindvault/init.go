package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a workspace and make it the configured one",
	Long: `Create the workspace directory (and a git repository with --git) and save it
as the workspace path. Without a path the platform default is used.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if err := a.Storage.InitializeWorkspace(ctx, path); err != nil {
			fatal("Failed to initialize workspace", err)
		}
		if path != "" {
			if err := a.Coordinator.UpdateConfig(ctx, configPatchWorkspace(path)); err != nil {
				fatal("Failed to save workspace path", err)
			}
		}
		fmt.Println("Initialized workspace in", a.Storage.ResolveWorkspaceRoot(ctx))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
