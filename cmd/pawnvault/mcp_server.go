package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/forest6511/pawnvault/internal/mcp"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(mcpServerCmd)
}

// mcpServerCmd starts the MCP server for AI coding assistant integration
var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Start the MCP server for AI coding assistant integration",
	Long: `Start the MCP server that gives AI coding assistants masked access to vaults.

The server implements the Model Context Protocol (MCP) over stdio transport.
Secret values are never returned; entries are shown masked (e.g. "****WXYZ").

Available tools:
  - vault_list:  List vault names with creation and last access time
  - entry_list:  List the entries of a vault with masked secrets
  - entry_add:   Add an entry with a generated secret

Authentication:
  Set PAWNVAULT_MASTER_KEY before starting the server. The key is read once
  and immediately cleared from the environment. Vaults protected by another
  key report "incorrect master key".

Policy:
  Create <root>/mcp-policy.yaml (mode 0600) to restrict which vaults are
  exposed and whether entry_add is available. Without a policy file every
  vault is exposed.

Audit:
  Every tool call is appended to an HMAC-chained log under <root>/.audit,
  keyed by the master key. Inspect it with "pawnvault audit list" and
  "pawnvault audit verify". Set audit = false under [mcp] in the config
  file to turn it off.

Example MCP configuration:
  {
    "mcpServers": {
      "pawnvault": {
        "type": "stdio",
        "command": "/path/to/pawnvault",
        "args": ["mcp-server"],
        "env": {
          "PAWNVAULT_MASTER_KEY": "your-master-key"
        }
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer()
	},
}

func runMCPServer() error {
	server, err := mcp.NewServer(&mcp.ServerOptions{
		Registry:     registry,
		Logger:       logger,
		Version:      version,
		DisableAudit: !cfg.MCP.Audit,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		// Don't report context canceled as an error
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
