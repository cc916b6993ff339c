package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/becas"
	"github.com/aretw0/becas/internal/cli"
	"github.com/aretw0/becas/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the assistant as an MCP Server so AI agents can use it as a set of tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port := cfg.Server.MCPPort
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

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
		srv := mcp.NewServer(app.Engine, becas.Version, mcp.WithLogger(logger.With("component", "mcp")))

		switch transport {
		case "stdio":
			logger.Info("Starting MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("MCP server failed: %w", err)
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
