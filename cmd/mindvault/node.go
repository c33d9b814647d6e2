package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/mindvault/pkg/core"
	"github.com/aretw0/mindvault/pkg/mindmap"
)

var (
	linkTitle   string
	summaryText string
)

// editNodes opens a note, selects nodeIDs and runs fn through an auto-saving
// shim. The shim is flushed before returning, also when fn fails.
func editNodes(noteID string, nodeIDs []string, fn func(e *mindmap.TreeEditor, s *mindmap.Shim) error) {
	ctx := context.Background()
	a := openNote(ctx, noteID)
	defer a.Close()

	editor, err := mindmap.NewTreeEditor(a.Coordinator.Snapshot().ActiveContent)
	if err != nil {
		fatal("Failed to edit note", err)
	}
	if err := editor.Select(nodeIDs...); err != nil {
		fatal("Failed to select nodes", err)
	}
	shim := a.NewShim(editor)
	atExit(func() { _ = shim.Close(ctx) })
	if err := fn(editor, shim); err != nil {
		fatal("Failed to edit note", err)
	}
	if err := shim.Close(ctx); err != nil {
		fatal("Failed to save note", err)
	}
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Edit the nodes of a mind-map notebook",
}

var nodeAddCmd = &cobra.Command{
	Use:   "add <note> <parent> <text>",
	Short: "Add a child node",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		editNodes(args[0], nil, func(e *mindmap.TreeEditor, s *mindmap.Shim) error {
			id, err := e.AddChild(args[1], args[2])
			if err != nil {
				return err
			}
			s.NotifyChange()
			fmt.Println(id)
			return nil
		})
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "remove <note> <node>",
	Short: "Remove a node and its subtree",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		editNodes(args[0], nil, func(e *mindmap.TreeEditor, s *mindmap.Shim) error {
			if err := e.RemoveNode(args[1]); err != nil {
				return err
			}
			s.NotifyChange()
			return nil
		})
	},
}

var nodeTextCmd = &cobra.Command{
	Use:   "text <note> <node> <text>",
	Short: "Set the text of a node",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		editNodes(args[0], args[1:2], func(_ *mindmap.TreeEditor, s *mindmap.Shim) error {
			return s.SetText(args[2])
		})
	},
}

var nodeLinkCmd = &cobra.Command{
	Use:   "link <note> <node> <url>",
	Short: "Attach a hyperlink to a node",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		editNodes(args[0], args[1:2], func(_ *mindmap.TreeEditor, s *mindmap.Shim) error {
			return s.InsertLink(mindmap.Hyperlink{URL: args[2], Title: linkTitle})
		})
	},
}

var nodeNoteCmd = &cobra.Command{
	Use:   "comment <note> <node> <text>",
	Short: "Attach a note to a node",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		editNodes(args[0], args[1:2], func(_ *mindmap.TreeEditor, s *mindmap.Shim) error {
			return s.InsertNote(args[2])
		})
	},
}

var nodeSummaryCmd = &cobra.Command{
	Use:   "summary <note> <node>...",
	Short: "Add a summary over one or more nodes",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		editNodes(args[0], args[1:], func(_ *mindmap.TreeEditor, s *mindmap.Shim) error {
			return s.AddSummary(summaryText)
		})
	},
}

var nodeRelateCmd = &cobra.Command{
	Use:   "relate <note> <from> <to>",
	Short: "Draw an associative line between two nodes",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		editNodes(args[0], args[1:2], func(_ *mindmap.TreeEditor, s *mindmap.Shim) error {
			return s.AddAssociativeLine(args[2])
		})
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag <note> <node> [tag]...",
	Short: "Replace the tags of a node",
	Long: `Replace the tags of a node. Known tags: todo, completed, question, project,
progress, note. Pass no tag to clear them.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tags := make(core.Tags, 0, len(args)-2)
		for _, raw := range args[2:] {
			t, ok := core.ParseTag(raw)
			if !ok {
				fatal("Failed to parse tag", fmt.Errorf("unknown tag %q", raw))
			}
			tags = append(tags, t)
		}
		editNodes(args[0], args[1:2], func(_ *mindmap.TreeEditor, s *mindmap.Shim) error {
			return s.SetTags(tags)
		})
	},
}

var untagCmd = &cobra.Command{
	Use:   "untag <note> <node> <tag>",
	Short: "Remove one tag from a node",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		t, _ := core.ParseTag(args[2])
		editNodes(args[0], args[1:2], func(_ *mindmap.TreeEditor, s *mindmap.Shim) error {
			return s.RemoveTag(t)
		})
	},
}

func init() {
	nodeLinkCmd.Flags().StringVar(&linkTitle, "title", "", "Title of the link")
	nodeSummaryCmd.Flags().StringVar(&summaryText, "text", mindmap.DefaultSummaryText, "Text of the summary")

	nodeCmd.AddCommand(nodeAddCmd, nodeRemoveCmd, nodeTextCmd, nodeLinkCmd, nodeNoteCmd, nodeSummaryCmd, nodeRelateCmd)
	rootCmd.AddCommand(nodeCmd, tagCmd, untagCmd)
}
