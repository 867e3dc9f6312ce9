// ABOUTME: CLI command to list memories
// ABOUTME: Shows stored facts and summaries, newest last, optionally for one category
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const listDefaultLimit = 20

var (
	listAll bool
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List stored memories",
		Long: `List stored memories in the order they were remembered.

Categories are personal, food, travel and misc. Compressed summaries are
marked "(compressed)". Only the most recent memories are shown unless
--all is given.

Examples:
  memory list
  memory list food
  memory list --all
  memory list --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runList,
	}

	cmd.Flags().BoolVar(&listAll, "all", false, fmt.Sprintf("Show all memories (not just the latest %d)", listDefaultLimit))

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	var categoryArg string
	if len(args) > 0 {
		categoryArg = args[0]
	}
	category, err := parseOptionalCategory(categoryArg)
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	memories, err := a.Store.List(category)
	if err != nil {
		return fmt.Errorf("listing memories: %w", err)
	}
	total := len(memories)
	if !listAll && total > listDefaultLimit {
		memories = memories[total-listDefaultLimit:]
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		for i := range memories {
			memories[i].Embedding = nil
		}
		return printJSON(out, memories)
	}

	if len(memories) == 0 {
		if !quiet {
			_, _ = fmt.Fprintf(out, "No memories found\n")
		}
		return nil
	}

	printMemoryTable(out, memories)

	if !quiet {
		if len(memories) < total {
			_, _ = fmt.Fprintf(out, "\nShowing %d of %d memories (use --all for everything)\n", len(memories), total)
		} else {
			_, _ = fmt.Fprintf(out, "\nTotal: %d memory(ies)\n", total)
		}
	}
	return nil
}
