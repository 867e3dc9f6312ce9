// ABOUTME: CLI command to trigger memory compression
// ABOUTME: Summarizes the oldest memories when the store is over its threshold
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/factmemory/internal/models"
)

// NewCompressCmd creates compress command
func NewCompressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compress",
		Short: "Compress the oldest memories into a summary",
		Long: `Replace a batch of the oldest memories with one summary.

Compression only runs when the store holds more memories than the
configured threshold and the reasoning service is available. If the
service fails nothing is deleted.

Examples:
  memory compress
  memory compress --format json`,
		Args: cobra.NoArgs,
		RunE: runCompress,
	}
}

func runCompress(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	outcome := a.Curator.MaybeCompress(cmd.Context())

	out := cmd.OutOrStdout()
	if jsonOutput() {
		if outcome.Summary != nil {
			outcome.Summary.Embedding = nil
		}
		return printJSON(out, outcome)
	}

	_, _ = fmt.Fprintf(out, "Compression: %s\n", outcome)
	if outcome.Status == models.CompressionCompressed && outcome.Summary != nil && !quiet {
		_, _ = fmt.Fprintf(out, "Summary (%s): %s\n", outcome.Summary.Category, outcome.Summary.Content)
	}
	if outcome.Status == models.CompressionFailed {
		return fmt.Errorf("compression failed: %s", outcome.Reason)
	}
	return nil
}
