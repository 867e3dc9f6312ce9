// ABOUTME: CachedEmbedder memoizes another Embedder in a ristretto cache
// ABOUTME: Keyed by exact text; cost is one per entry
package embedding

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// CachedEmbedder avoids re-embedding text it has already seen
type CachedEmbedder struct {
	inner Embedder
	cache *ristretto.Cache
}

// NewCachedEmbedder caches up to maxEntries vectors from inner
func NewCachedEmbedder(inner Embedder, maxEntries int64) (*CachedEmbedder, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxEntries)
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Dimension returns the wrapped embedder's dimension
func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

// Embed returns a cached vector or computes and caches one.
// Callers get their own copy so cached entries are never mutated.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float64); ok {
			return clone(vec), nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, clone(vec), 1)
	return vec, nil
}

// Wait blocks until pending cache writes are visible
func (c *CachedEmbedder) Wait() {
	c.cache.Wait()
}

// Close releases the cache
func (c *CachedEmbedder) Close() {
	c.cache.Close()
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
