// ABOUTME: Export functionality for memory data
// ABOUTME: Supports YAML, JSON and Markdown export formats
package sqlite

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harper/factmemory/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version    string         `yaml:"version" json:"version"`
	ExportedAt string         `yaml:"exported_at" json:"exported_at"`
	Tool       string         `yaml:"tool" json:"tool"`
	Dimension  int            `yaml:"dimension" json:"dimension"`
	Counts     map[string]int `yaml:"counts" json:"counts"`
	Memories   []ExportMemory `yaml:"memories" json:"memories"`
}

// ExportMemory represents a memory for export
type ExportMemory struct {
	ID            string    `yaml:"id" json:"id"`
	Content       string    `yaml:"content" json:"content"`
	Category      string    `yaml:"category" json:"category"`
	CreatedAt     string    `yaml:"created_at" json:"created_at"`
	SourceSnippet string    `yaml:"source_snippet,omitempty" json:"source_snippet,omitempty"`
	Compressed    bool      `yaml:"compressed" json:"compressed"`
	Embedding     []float64 `yaml:"embedding,omitempty,flow" json:"embedding,omitempty"`
}

// Export snapshots all memories. Embeddings are included only when requested.
func (s *Storage) Export(includeEmbeddings bool) (*ExportData, error) {
	memories, err := s.List("")
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "memory",
		Dimension:  s.dim,
		Counts:     make(map[string]int, len(models.Categories)),
		Memories:   make([]ExportMemory, 0, len(memories)),
	}
	for _, c := range models.Categories {
		data.Counts[string(c)] = 0
	}

	for _, m := range memories {
		em := ExportMemory{
			ID:            m.ID,
			Content:       m.Content,
			Category:      string(m.Category),
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
			SourceSnippet: m.SourceSnippet,
			Compressed:    m.Compressed,
		}
		if includeEmbeddings {
			em.Embedding = m.Embedding
		}
		data.Counts[string(m.Category)]++
		data.Memories = append(data.Memories, em)
	}

	return data, nil
}

// ExportToYAML exports data to a YAML file
func (s *Storage) ExportToYAML(outputPath string, includeEmbeddings bool) error {
	return s.exportToFile(outputPath, func(w io.Writer) error {
		data, err := s.Export(includeEmbeddings)
		if err != nil {
			return err
		}
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	})
}

// ExportToJSON exports data to a JSON file
func (s *Storage) ExportToJSON(outputPath string, includeEmbeddings bool) error {
	return s.exportToFile(outputPath, func(w io.Writer) error {
		data, err := s.Export(includeEmbeddings)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	})
}

// ExportToMarkdown exports data to a Markdown file, grouped by category
func (s *Storage) ExportToMarkdown(outputPath string) error {
	return s.exportToFile(outputPath, func(w io.Writer) error {
		data, err := s.Export(false)
		if err != nil {
			return err
		}
		writeMarkdown(w, data)
		return nil
	})
}

func (s *Storage) exportToFile(outputPath string, write func(io.Writer) error) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeMarkdown(w io.Writer, data *ExportData) {
	_, _ = fmt.Fprintf(w, "# Memory Export - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	for _, c := range models.Categories {
		var section []ExportMemory
		for _, m := range data.Memories {
			if m.Category == string(c) {
				section = append(section, m)
			}
		}
		if len(section) == 0 {
			continue
		}

		_, _ = fmt.Fprintf(w, "## %s (%d)\n\n", c, len(section))
		for _, m := range section {
			_, _ = fmt.Fprintf(w, "- %s *(%s)*\n", m.Content, m.CreatedAt)
		}
		_, _ = fmt.Fprintln(w)
	}
}
