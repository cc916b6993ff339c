package main

import (
	"fmt"

	"github.com/aretw0/becas/internal/cli"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the scholarship catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file-or-dir>",
	Short: "Load a YAML or markdown catalog into PostgreSQL",
	Long:  `Creates the catalog schema when missing and upserts every scholarship of the source into catalog.dsn.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cli.ImportCatalog(cmd.Context(), cfg, args[0], logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d scholarship(s) from %s\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd)
}
