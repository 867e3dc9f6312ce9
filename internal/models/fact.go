// ABOUTME: Fact is a candidate (content, category) pair produced by extraction
// ABOUTME: Facts become Memories only after embedding and storage
package models

import "strings"

// Fact is an extracted candidate fact
type Fact struct {
	Content  string   `json:"content"`
	Category Category `json:"category"`
}

// DedupeFacts drops empty facts and case-insensitive duplicate contents,
// keeping the first occurrence
func DedupeFacts(facts []Fact) []Fact {
	seen := make(map[string]bool, len(facts))
	out := make([]Fact, 0, len(facts))
	for _, f := range facts {
		f.Content = strings.TrimSpace(f.Content)
		if f.Content == "" {
			continue
		}
		key := strings.ToLower(f.Content)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !f.Category.Valid() {
			f.Category = CategoryMisc
		}
		out = append(out, f)
	}
	return out
}
