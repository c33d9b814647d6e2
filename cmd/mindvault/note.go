package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/storage"
)

var (
	noteText     bool
	noteCategory string
	noteSub      string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notebooks",
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notebooks, most recently updated first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		notes := a.Coordinator.Snapshot().Notes
		if outputFormat != "" {
			if err := write(map[string]any{"notes": notes}); err != nil {
				fatal("Failed to encode notes", err)
			}
			return
		}
		for _, n := range notes {
			fmt.Printf("%s\t%s\n", n.ID, n.LastUpdated.Format(time.DateTime))
		}
	},
}

var noteCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a notebook",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		var opts []storage.CreateOption
		if noteText {
			opts = append(opts, storage.WithKind(core.KindText))
		}
		meta, err := a.Coordinator.CreateNote(ctx, args[0], noteCategory, noteSub, opts...)
		if err != nil {
			fatal("Failed to create note", err)
		}
		fmt.Println(meta.ID)
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a notebook",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openNote(ctx, args[0])
		defer a.Close()

		nb := a.Coordinator.Snapshot().ActiveContent
		if nb.Kind == core.KindText && outputFormat == "" {
			fmt.Print(nb.Text)
			return
		}
		if err := write(nb); err != nil {
			fatal("Failed to encode note", err)
		}
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notebook",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		if err := a.Coordinator.DeleteNote(ctx, args[0]); err != nil {
			fatal("Failed to delete note", err)
		}
	},
}

func init() {
	noteCreateCmd.Flags().BoolVar(&noteText, "text", false, "Create a plain-text notebook instead of a mind map")
	noteCreateCmd.Flags().StringVarP(&noteCategory, "category", "c", storage.DefaultCategoryID, "Category of the notebook")
	noteCreateCmd.Flags().StringVarP(&noteSub, "subcategory", "s", "", "Subcategory of the notebook")
	noteListCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json, yaml or toml")
	noteShowCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json, yaml or toml")

	noteCmd.AddCommand(noteListCmd, noteCreateCmd, noteShowCmd, noteDeleteCmd)
	rootCmd.AddCommand(noteCmd)
}
