package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/mindvault"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mindvault",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mindvault version %s\n", strings.TrimSpace(mindvault.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
