// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to use Memory via stdio
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/factmemory/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs Memory as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to record facts and retrieve memories via stdio.

Logs go to stderr; stdout carries the protocol.
Configure in Claude Desktop's config file to enable memory tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  memory mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "memory": {
  #       "command": "memory",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if !a.Coordinator.Configured() {
		a.Logger.Warn("no reasoning service configured; facts will be extracted by local rules and compression is disabled")
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcp.ServeStdio(ctx, a)
}
