// ABOUTME: Embedder turns text into fixed-dimension vectors for similarity search
// ABOUTME: Backends are hash (local), OpenAI (remote) and a caching wrapper
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when there is nothing to embed
var ErrEmptyText = errors.New("text is empty")

// Embedder maps text to a deterministic vector of length Dimension()
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}
