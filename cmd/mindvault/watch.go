package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/mindvault/pkg/adapters/fs"
	mvlifecycle "github.com/aretw0/mindvault/pkg/adapters/lifecycle"
)

var watchDirs bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print workspace changes as they happen",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := openApp(ctx)
		defer a.Close()

		b, ok := a.Bridge.(*fs.Bridge)
		if !ok {
			fatal("Failed to watch", fmt.Errorf("bridge %T cannot watch", a.Bridge))
		}
		root := a.Storage.ResolveWorkspaceRoot(ctx)
		events, err := b.Watch(ctx, root)
		if err != nil {
			fatal("Failed to watch", err)
		}

		filter := mvlifecycle.NotebooksOnly
		if watchDirs {
			filter = nil
		}
		src := mvlifecycle.NewSource(events, filter)
		if err := src.Start(ctx); err != nil {
			fatal("Failed to watch", err)
		}

		fmt.Fprintln(os.Stderr, "Watching", root)
		for e := range src.Events() {
			fmt.Println(e.String())
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchDirs, "dirs", false, "Also report category and subcategory directories")
	rootCmd.AddCommand(watchCmd)
}
