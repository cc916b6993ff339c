package main

import (
	"github.com/aretw0/becas/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long:  `Starts an interactive conversation. Pass --session to resume a stored one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		app, err := cli.Build(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.WatchCatalog(ctx); err != nil {
			return err
		}
		return cli.RunChat(ctx, app, cli.ChatOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume or create")
	chatCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")

	// chat is the default command
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
