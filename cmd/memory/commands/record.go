// ABOUTME: CLI command to record a conversation turn
// ABOUTME: Extracts facts from text, file or stdin and stores them as memories
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/factmemory/internal/models"
)

var (
	recordFile string
)

// NewRecordCmd creates record command
func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [text]",
		Short: "Record a conversation turn",
		Long: `Record a user message and remember the facts it contains.

Facts are extracted by the reasoning service when one is configured and
healthy, otherwise by local rules. Near-duplicates of existing memories
are skipped.

Examples:
  memory record "I'm allergic to peanuts"
  memory record --file notes.txt
  echo "I love Thai food" | memory record
  memory record --format json "I'm going to Japan in April"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRecord,
	}

	cmd.Flags().StringVar(&recordFile, "file", "", "Read the turn from a file")

	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	var text string
	if recordFile != "" {
		data, err := os.ReadFile(recordFile) // #nosec G304
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		text = string(data)
	} else if len(args) > 0 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("no text provided")
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	stored, err := a.Curator.RecordTurn(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}

	if jsonOutput() {
		for i := range stored {
			stored[i].Embedding = nil
		}
		return printJSON(cmd.OutOrStdout(), stored)
	}

	out := cmd.OutOrStdout()
	if len(stored) == 0 {
		if !quiet {
			_, _ = fmt.Fprintln(out, "No new facts to remember")
		}
		return nil
	}

	printMemoryTable(out, stored)
	if !quiet {
		_, _ = fmt.Fprintf(out, "\nRemembered %d fact(s)\n", len(stored))
	}
	return nil
}

// printMemoryTable writes memories as an aligned table
func printMemoryTable(out io.Writer, memories []models.Memory) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID\tCATEGORY\tCREATED\tCONTENT\n")
	_, _ = fmt.Fprintf(w, "--\t--------\t-------\t-------\n")

	for _, m := range memories {
		content := m.Content
		if m.Compressed {
			content = strings.TrimPrefix(content, models.CompressedPrefix) + " (compressed)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncate(m.ID, 12),
			m.Category,
			formatTime(m.CreatedAt),
			truncate(content, 70))
	}
	_ = w.Flush()
}
