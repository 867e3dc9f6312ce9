// ABOUTME: Standalone entry point for the memory MCP server with stdio transport
// ABOUTME: Same tools as "memory mcp" without the rest of the CLI
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/factmemory/internal/app"
	"github.com/harper/factmemory/internal/config"
	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/mcp"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize memory: %v", err)
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcp.ServeStdio(ctx, a); err != nil {
		logger.Error("server stopped", "error", err)
		stop()
		_ = a.Close()
		os.Exit(1)
	}
}
