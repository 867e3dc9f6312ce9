// ABOUTME: CLI command to delete every stored memory
// ABOUTME: Asks for confirmation unless --yes is given
package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	clearYes bool
)

// NewClearCmd creates clear command
func NewClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all memories",
		Long: `Delete every stored memory. This cannot be undone.

Run "memory export" first if you want a copy.

Examples:
  memory clear
  memory clear --yes`,
		Args: cobra.NoArgs,
		RunE: runClear,
	}

	cmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

func runClear(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !clearYes {
		_, _ = fmt.Fprint(out, "Delete all memories? [y/N] ")
		reader := bufio.NewReader(cmd.InOrStdin())
		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return fmt.Errorf("failed to read response: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			_, _ = fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	n, err := a.Store.DeleteAll()
	if err != nil {
		return fmt.Errorf("clearing memories: %w", err)
	}

	if !quiet {
		_, _ = fmt.Fprintf(out, "Deleted %d memory(ies)\n", n)
	}
	return nil
}
