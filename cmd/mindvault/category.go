package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories and their subcategories",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		cats := a.Coordinator.Snapshot().Categories
		if outputFormat != "" {
			if err := write(map[string]any{"categories": cats}); err != nil {
				fatal("Failed to encode categories", err)
			}
			return
		}
		for _, c := range cats {
			fmt.Println(c.ID)
			for _, s := range c.SubCategories {
				fmt.Printf("  %s\n", s.ID)
			}
		}
	},
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		c, err := a.Coordinator.CreateCategory(ctx, args[0])
		if err != nil {
			fatal("Failed to create category", err)
		}
		fmt.Println(c.ID)
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an empty category",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		if err := a.Coordinator.DeleteCategory(ctx, args[0]); err != nil {
			fatal("Failed to delete category", err)
		}
	},
}

var subcategoryCmd = &cobra.Command{
	Use:     "subcategory",
	Aliases: []string{"sub"},
	Short:   "Manage subcategories",
}

var subcategoryCreateCmd = &cobra.Command{
	Use:   "create <category> <name>",
	Short: "Create a subcategory",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		s, err := a.Coordinator.CreateSubcategory(ctx, args[0], args[1])
		if err != nil {
			fatal("Failed to create subcategory", err)
		}
		fmt.Println(s.ID)
	},
}

var subcategoryDeleteCmd = &cobra.Command{
	Use:   "delete <category> <id>",
	Short: "Delete a subcategory and its notes",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := openApp(ctx)
		defer a.Close()

		if err := a.Coordinator.DeleteSubcategory(ctx, args[0], args[1]); err != nil {
			fatal("Failed to delete subcategory", err)
		}
	},
}

func init() {
	categoryListCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json, yaml or toml")
	categoryCmd.AddCommand(categoryListCmd, categoryCreateCmd, categoryDeleteCmd)
	subcategoryCmd.AddCommand(subcategoryCreateCmd, subcategoryDeleteCmd)
	rootCmd.AddCommand(categoryCmd, subcategoryCmd)
}
