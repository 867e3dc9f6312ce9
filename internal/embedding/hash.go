// ABOUTME: HashEmbedder is a local embedder using signed feature hashing
// ABOUTME: Hashes stemmed terms, bigrams and category topic features into D buckets, L2-normalized
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/harper/factmemory/internal/models"
	"github.com/harper/factmemory/internal/util"
)

const (
	bigramWeight = 0.5
	topicWeight  = 0.75
)

// HashEmbedder needs no model or network and always returns the same vector for the same text
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder of the given dimension
func NewHashEmbedder(dim int) (*HashEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &HashEmbedder{dim: dim}, nil
}

// Dimension returns the vector length
func (h *HashEmbedder) Dimension() int {
	return h.dim
}

// Embed hashes the terms of text into a unit vector
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	terms := util.Terms(text)
	if len(terms) == 0 {
		// Only stop-words: fall back to the raw words so "I am" still embeds
		terms = util.Words(text)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no words in %q", ErrEmptyText, util.Truncate(text, 40))
	}

	vec := make([]float64, h.dim)
	for i, term := range terms {
		h.add(vec, term, 1)
		if i > 0 {
			h.add(vec, terms[i-1]+" "+term, bigramWeight)
		}
		// Keywords of one category share a feature, so "vegetarian" and "food" overlap
		if c, ok := models.TermCategory(term); ok {
			h.add(vec, "topic:"+string(c), topicWeight)
		}
	}

	if !Normalize(vec) {
		return nil, fmt.Errorf("%w: features cancelled out", ErrEmptyText)
	}
	return vec, nil
}

func (h *HashEmbedder) add(vec []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := sum % uint64(h.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
