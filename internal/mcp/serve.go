// ABOUTME: Runs the memory MCP server over stdio until the context ends
// ABOUTME: Drains in-flight tool calls before returning so the store can close cleanly
package mcp

import (
	"context"
	"fmt"

	"github.com/harper/factmemory/internal/app"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServeStdio serves the memory tools on stdin/stdout. It returns nil when
// ctx is cancelled and the server error otherwise.
func ServeStdio(ctx context.Context, a *app.App) error {
	server, handlers := NewServer(a)

	handlers.logger.Info("MCP server starting on stdio",
		"service", a.Coordinator.Health().Service,
		"db", a.Store.Path())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		handlers.logger.Info("shutdown signal received")
		handlers.Shutdown()
		return nil
	case err := <-serverErr:
		handlers.Shutdown()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
