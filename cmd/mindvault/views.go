package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var todoDone bool

var viewsCmd = &cobra.Command{
	Use:   "views <note>",
	Short: "Print the tasks, questions and projects of a notebook",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openNote(ctx, args[0])
		defer a.Close()

		if err := write(a.Coordinator.Views()); err != nil {
			fatal("Failed to encode views", err)
		}
	},
}

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Work with the tasks of a notebook",
}

var todoListCmd = &cobra.Command{
	Use:   "list <note>",
	Short: "List tasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openNote(ctx, args[0])
		defer a.Close()

		for _, t := range a.Coordinator.Views().Tasks {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Printf("[%s] %s\t%s\n", mark, t.ID, t.Text)
		}
	},
}

var todoToggleCmd = &cobra.Command{
	Use:   "toggle <note> <task>",
	Short: "Mark a task done (--done) or open again",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openNote(ctx, args[0])
		defer a.Close()

		if err := a.Coordinator.ToggleTask(ctx, args[1], todoDone); err != nil {
			fatal("Failed to toggle task", err)
		}
	},
}

func init() {
	viewsCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json, yaml or toml")
	todoToggleCmd.Flags().BoolVar(&todoDone, "done", false, "Mark the task completed")

	todoCmd.AddCommand(todoListCmd, todoToggleCmd)
	rootCmd.AddCommand(viewsCmd, todoCmd)
}
