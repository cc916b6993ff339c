package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/becas"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of becas",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "becas version %s\n", strings.TrimSpace(becas.Version))
	},
}

func init() {
	// No configuration is needed to print the version.
	versionCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {}
	rootCmd.AddCommand(versionCmd)
}
