// ABOUTME: CLI command to report reasoning service health
// ABOUTME: Optionally probes the service with a tiny extraction first
package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthProbe bool
)

// NewHealthCmd creates health command
func NewHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show reasoning service health",
		Long: `Show which reasoning service is configured and whether it is usable.

Each CLI invocation starts with an unknown state. Use --probe to send a
short extraction request and report the result.

Examples:
  memory health
  memory health --probe
  memory health --format json`,
		Args: cobra.NoArgs,
		RunE: runHealth,
	}

	cmd.Flags().BoolVar(&healthProbe, "probe", false, "Send a test request to the reasoning service")

	return cmd
}

func runHealth(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if healthProbe {
		if _, err := a.Coordinator.Complete(cmd.Context(), "health", "", "Reply with an empty JSON array: []"); err != nil {
			a.Logger.Debug("health probe failed", "error", err)
		}
	}
	h := a.Curator.Health()

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return printJSON(out, h)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Service:\t%s\n", h.Service)
	_, _ = fmt.Fprintf(w, "State:\t%s\n", h.State)
	_, _ = fmt.Fprintf(w, "Successes:\t%d\n", h.Successes)
	_, _ = fmt.Fprintf(w, "Failures:\t%d\n", h.Failures)
	if !h.LastSuccess.IsZero() {
		_, _ = fmt.Fprintf(w, "Last success:\t%s\n", h.LastSuccess.Format(time.RFC3339))
	}
	if h.LastError != "" {
		_, _ = fmt.Fprintf(w, "Last error:\t%s (%s)\n", h.LastError, formatTime(h.LastErrorAt))
	}
	return w.Flush()
}
