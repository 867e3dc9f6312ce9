// ABOUTME: Root command and global flags for the memory CLI
// ABOUTME: Loads configuration and wires the memory system for subcommands
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/factmemory/internal/app"
	"github.com/harper/factmemory/internal/config"
	"github.com/harper/factmemory/internal/logging"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
	dbPath       string
)

const banner = `
███╗   ███╗███████╗███╗   ███╗ ██████╗ ██████╗ ██╗   ██╗
████╗ ████║██╔════╝████╗ ████║██╔═══██╗██╔══██╗╚██╗ ██╔╝
██╔████╔██║█████╗  ██╔████╔██║██║   ██║██████╔╝ ╚████╔╝
██║╚██╔╝██║██╔══╝  ██║╚██╔╝██║██║   ██║██╔══██╗  ╚██╔╝
██║ ╚═╝ ██║███████╗██║ ╚═╝ ██║╚██████╔╝██║  ██║   ██║
╚═╝     ╚═╝╚══════╝╚═╝     ╚═╝ ╚═════╝ ╚═╝  ╚═╝   ╚═╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Long-term factual memory for conversational agents",
		Long: banner + `

Memory extracts durable facts from conversation, files them under a
category (personal, food, travel, misc) and retrieves them by semantic
similarity. When the reasoning service is unavailable, extraction falls
back to local rules and nothing is lost.

Configuration comes from an optional YAML file (--config or MEMORY_CONFIG),
a .env file and MEMORY_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the memory database (overrides config)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewRecordCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewCompressCmd())
	cmd.AddCommand(NewHealthCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewClearCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads configuration and applies command-line overrides
func loadConfig() (*config.Config, error) {
	// .env is optional
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		path = os.Getenv("MEMORY_CONFIG")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "warn"
	}
	return cfg, nil
}

// loadApp wires the memory system. Callers must Close the result.
func loadApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing memory: %w", err)
	}
	return a, nil
}

// jsonOutput reports whether results should be printed as JSON
func jsonOutput() bool {
	return outputFormat == "json"
}
