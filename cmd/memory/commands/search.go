// ABOUTME: CLI command to search memories
// ABOUTME: Category-scoped semantic retrieval, optionally rendered as prompt context
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/factmemory/internal/core"
	"github.com/harper/factmemory/internal/models"
)

var (
	searchLimit    int
	searchCategory string
	searchContext  bool
	searchTokens   int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories",
		Long: `Search memories by semantic similarity.

The query's category is inferred from stored memories and the search is
scoped to it. When the scoped results are sparse the search widens to all
categories; scoped hits always rank first.

Examples:
  memory search "What food do I like?"
  memory search --limit 10 --category travel "trips"
  memory search --context "Can I eat satay?"
  memory search --format json "allergies"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 5, "Maximum results to return")
	cmd.Flags().StringVar(&searchCategory, "category", "", "Scope to a category instead of inferring one")
	cmd.Flags().BoolVar(&searchContext, "context", false, "Print the prompt context block instead of a table")
	cmd.Flags().IntVar(&searchTokens, "max-tokens", 0, "Token budget for --context (0 for unlimited)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}
	category, err := parseOptionalCategory(searchCategory)
	if err != nil {
		return err
	}

	query := args[0]

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	var results []models.ScoredMemory
	if category != "" {
		results, err = a.Curator.RetrieveInCategory(ctx, query, category, searchLimit)
	} else {
		results, err = a.Curator.Retrieve(ctx, query, searchLimit)
	}
	if err != nil {
		return fmt.Errorf("searching memories: %w", err)
	}

	out := cmd.OutOrStdout()
	if searchContext {
		_, err := fmt.Fprintln(out, core.RenderContext(results, nil, searchTokens))
		return err
	}

	if jsonOutput() {
		for i := range results {
			results[i].Memory.Embedding = nil
		}
		return printJSON(out, results)
	}

	if len(results) == 0 {
		if !quiet {
			_, _ = fmt.Fprintf(out, "No memories found for query: %s\n", query)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "SCORE\tCATEGORY\tSCOPE\tCONTENT\n")
	_, _ = fmt.Fprintf(w, "-----\t--------\t-----\t-------\n")

	for _, r := range results {
		scope := "global"
		if r.Scoped {
			scope = "scoped"
		}
		_, _ = fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
			r.Score,
			r.Memory.Category,
			scope,
			truncate(r.Memory.Content, 70))
	}
	_ = w.Flush()

	if !quiet {
		_, _ = fmt.Fprintf(out, "\nFound %d result(s)\n", len(results))
	}
	return nil
}
