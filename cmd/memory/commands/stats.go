// ABOUTME: CLI command to show memory counts
// ABOUTME: Totals per category plus the compression threshold
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/factmemory/internal/models"
)

// Stats is the JSON shape of the stats command
type Stats struct {
	Total                int            `json:"total"`
	ByCategory           map[string]int `json:"by_category"`
	CompressionThreshold int            `json:"compression_threshold"`
	Dimension            int            `json:"dimension"`
	Path                 string         `json:"path"`
}

// NewStatsCmd creates stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show memory counts by category",
		Long: `Show how many memories are stored in each category.

Compression runs once the total exceeds the configured threshold.

Examples:
  memory stats
  memory stats --format json`,
		Args: cobra.NoArgs,
		RunE: runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	counts, err := a.Store.CountByCategory()
	if err != nil {
		return fmt.Errorf("counting memories: %w", err)
	}

	stats := Stats{
		ByCategory:           make(map[string]int, len(counts)),
		CompressionThreshold: a.Config.CompressionThreshold,
		Dimension:            a.Store.Dimension(),
		Path:                 a.Store.Path(),
	}
	for c, n := range counts {
		stats.ByCategory[string(c)] = n
		stats.Total += n
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return printJSON(out, stats)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "CATEGORY\tCOUNT\n")
	_, _ = fmt.Fprintf(w, "--------\t-----\n")
	for _, c := range models.Categories {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", c, counts[c])
	}
	_, _ = fmt.Fprintf(w, "total\t%d\n", stats.Total)
	_ = w.Flush()

	if !quiet {
		_, _ = fmt.Fprintf(out, "\nCompression threshold: %d\n", stats.CompressionThreshold)
		_, _ = fmt.Fprintf(out, "Database: %s\n", stats.Path)
	}
	return nil
}
