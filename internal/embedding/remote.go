// ABOUTME: RemoteEmbedder adapts an embedding API client to the Embedder interface
// ABOUTME: Enforces the configured dimension on every returned vector
package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Generator is the embedding half of an API client such as llm.OpenAIClient
type Generator interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// RemoteEmbedder embeds text through a Generator
type RemoteEmbedder struct {
	gen Generator
	dim int
}

// NewRemoteEmbedder wraps gen; every vector it returns must have length dim
func NewRemoteEmbedder(gen Generator, dim int) (*RemoteEmbedder, error) {
	if gen == nil {
		return nil, fmt.Errorf("embedding generator is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &RemoteEmbedder{gen: gen, dim: dim}, nil
}

// Dimension returns the vector length
func (r *RemoteEmbedder) Dimension() int {
	return r.dim
}

// Embed calls the remote API
func (r *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vec, err := r.gen.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vec) != r.dim {
		return nil, fmt.Errorf("embedding has dimension %d, want %d", len(vec), r.dim)
	}
	return vec, nil
}
