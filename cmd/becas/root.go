package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/becas/internal/cli"
	"github.com/aretw0/becas/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "becas",
	Short: "Becas is a conversational scholarship search assistant",
	Long: `Becas collects search criteria (area, education level, location and organization)
through a Spanish conversation, confirms them and queries the scholarship catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = c
		logger = cli.NewLogger(os.Stderr, c.Log)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file")
}
