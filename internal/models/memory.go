// ABOUTME: Memory is the durable unit of long-term knowledge
// ABOUTME: Also defines scored retrieval results returned to callers
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CompressedPrefix marks the content of synthesized summary memories
const CompressedPrefix = "[Compressed summary] "

// Memory is a stored fact or compressed summary
type Memory struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Category      Category  `json:"category"`
	Embedding     []float64 `json:"embedding,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	SourceSnippet string    `json:"source_snippet,omitempty"`
	Compressed    bool      `json:"compressed"`
}

// NewMemory creates a memory with a fresh ID and the current timestamp
func NewMemory(content string, category Category, embedding []float64, sourceSnippet string) (*Memory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("content cannot be empty")
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if len(embedding) == 0 {
		return nil, errors.New("embedding cannot be empty")
	}

	return &Memory{
		ID:            NewMemoryID(),
		Content:       content,
		Category:      category,
		Embedding:     embedding,
		CreatedAt:     time.Now().UTC(),
		SourceSnippet: sourceSnippet,
	}, nil
}

// NewMemoryID returns a unique memory identifier
func NewMemoryID() string {
	return "mem_" + uuid.New().String()
}

// ScoredMemory is a retrieval hit with its cosine similarity.
// Scoped is true when the hit came from the category-scoped search.
type ScoredMemory struct {
	Memory Memory  `json:"memory"`
	Score  float64 `json:"score"`
	Scoped bool    `json:"scoped"`
}
