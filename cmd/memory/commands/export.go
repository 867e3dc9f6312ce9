// ABOUTME: CLI command to export memories to a file
// ABOUTME: Writes YAML, JSON or Markdown snapshots of the memory store
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	exportOutput     string
	exportFormat     string
	exportEmbeddings bool
)

// NewExportCmd creates export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories to a file",
		Long: `Export every stored memory to a file.

Formats: yaml (default), json and markdown. Markdown groups memories by
category for reading; yaml and json can include embeddings.

Examples:
  memory export
  memory export -o memories.yaml
  memory export -f json -o memories.json --embeddings
  memory export -f markdown -o memories.md`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default memory-export-<date>.<ext>)")
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "Export format: yaml, json, markdown")
	cmd.Flags().BoolVar(&exportEmbeddings, "embeddings", false, "Include embedding vectors (yaml and json only)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := validateFormat(exportFormat, "yaml", "json", "markdown"); err != nil {
		return err
	}

	output := exportOutput
	if output == "" {
		output = defaultExportPath(exportFormat, time.Now())
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	switch exportFormat {
	case "json":
		err = a.Store.ExportToJSON(output, exportEmbeddings)
	case "markdown":
		err = a.Store.ExportToMarkdown(output)
	default:
		err = a.Store.ExportToYAML(output, exportEmbeddings)
	}
	if err != nil {
		return fmt.Errorf("exporting memories: %w", err)
	}

	if !quiet {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported memories to %s\n", output)
	}
	return nil
}

func defaultExportPath(format string, now time.Time) string {
	ext := format
	if format == "markdown" {
		ext = "md"
	}
	return fmt.Sprintf("memory-export-%s.%s", now.Format("2006-01-02"), ext)
}
