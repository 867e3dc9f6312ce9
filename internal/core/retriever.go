// ABOUTME: Retriever ranks stored memories against a query, category first and globally when sparse
// ABOUTME: Query vectors may be refined toward the centroid of the searched set before scoring
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/harper/factmemory/internal/embedding"
	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/models"
)

const (
	DefaultTopK                = 5
	DefaultMinScopedResults    = 3
	DefaultMinScopedSimilarity = 0.2
	DefaultRefineAlpha         = 0.1
)

// RetrieverConfig tunes retrieval. Alpha 0 disables query refinement.
type RetrieverConfig struct {
	TopK                int
	MinScopedResults    int
	MinScopedSimilarity float64
	Alpha               float64
	Logger              *slog.Logger
}

// DefaultRetrieverConfig returns the standard retrieval settings
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:                DefaultTopK,
		MinScopedResults:    DefaultMinScopedResults,
		MinScopedSimilarity: DefaultMinScopedSimilarity,
		Alpha:               DefaultRefineAlpha,
	}
}

// MemoryReader is the read side of the Memory Store
type MemoryReader interface {
	List(category models.Category) ([]models.Memory, error)
}

// Retriever is read-only; it never mutates the store
type Retriever struct {
	store    MemoryReader
	embedder embedding.Embedder
	cfg      RetrieverConfig
	logger   *slog.Logger
}

// NewRetriever creates a Retriever
func NewRetriever(store MemoryReader, embedder embedding.Embedder, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logging.Component(cfg.Logger, "retriever"),
	}
}

// Retrieve embeds query and returns the top k memories. An empty category
// is inferred from the query; k <= 0 uses the configured TopK.
// Text with nothing to embed yields no results rather than an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, category models.Category, k int) ([]models.ScoredMemory, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if errors.Is(err, embedding.ErrEmptyText) {
		return []models.ScoredMemory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return r.RetrieveEmbedding(vec, query, category, k)
}

// RetrieveEmbedding ranks memories against an already embedded query
func (r *Retriever) RetrieveEmbedding(queryVec []float64, queryText string, category models.Category, k int) ([]models.ScoredMemory, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidCategory, category)
	}
	if k <= 0 {
		k = r.cfg.TopK
	}

	// One snapshot serves both the scoped and the global pass
	all, err := r.store.List("")
	if err != nil {
		return nil, err
	}
	if len(all) == 0 || len(queryVec) == 0 {
		return []models.ScoredMemory{}, nil
	}

	if category == "" {
		category = r.InferCategory(queryText, queryVec, all)
	}

	var results []models.ScoredMemory
	if category != "" {
		results = r.score(queryVec, filterCategory(all, category), true)
	}

	if r.sparse(results) {
		global := r.score(queryVec, all, false)
		r.logger.Debug("scoped results sparse, searching globally",
			"category", category, "scoped", len(results), "global", len(global))
		results = mergeResults(results, global)
	}

	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// InferCategory picks the category a query is about: keyword match first,
// then the category whose stored centroid is nearest the query. Returns ""
// when neither gives a positive signal.
func (r *Retriever) InferCategory(queryText string, queryVec []float64, memories []models.Memory) models.Category {
	if c, ok := models.KeywordCategory(queryText); ok {
		return c
	}

	byCategory := make(map[models.Category][][]float64)
	for _, m := range memories {
		byCategory[m.Category] = append(byCategory[m.Category], m.Embedding)
	}

	var (
		best    models.Category
		bestSim float64
	)
	for _, c := range models.Categories {
		vectors := byCategory[c]
		if len(vectors) == 0 {
			continue
		}
		sim := embedding.CosineSimilarity(queryVec, embedding.Centroid(vectors))
		if sim > bestSim {
			best, bestSim = c, sim
		}
	}
	return best
}

func (r *Retriever) score(queryVec []float64, memories []models.Memory, scoped bool) []models.ScoredMemory {
	if len(memories) == 0 {
		return nil
	}

	candidates := make([][]float64, len(memories))
	for i, m := range memories {
		candidates[i] = m.Embedding
	}
	refined := embedding.Refine(queryVec, candidates, r.cfg.Alpha)

	results := make([]models.ScoredMemory, len(memories))
	for i, m := range memories {
		results[i] = models.ScoredMemory{
			Memory: m,
			Score:  embedding.CosineSimilarity(refined, m.Embedding),
			Scoped: scoped,
		}
	}
	return results
}

func (r *Retriever) sparse(scoped []models.ScoredMemory) bool {
	if len(scoped) == 0 || len(scoped) < r.cfg.MinScopedResults {
		return true
	}
	best := scoped[0].Score
	for _, s := range scoped[1:] {
		if s.Score > best {
			best = s.Score
		}
	}
	return best < r.cfg.MinScopedSimilarity
}

func filterCategory(memories []models.Memory, category models.Category) []models.Memory {
	out := make([]models.Memory, 0, len(memories))
	for _, m := range memories {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

// mergeResults adds global hits not already found by the scoped pass; a
// memory present in both keeps its scoped score
func mergeResults(scoped, global []models.ScoredMemory) []models.ScoredMemory {
	seen := make(map[string]bool, len(scoped))
	merged := make([]models.ScoredMemory, 0, len(scoped)+len(global))
	for _, s := range scoped {
		seen[s.Memory.ID] = true
		merged = append(merged, s)
	}
	for _, g := range global {
		if !seen[g.Memory.ID] {
			merged = append(merged, g)
		}
	}
	return merged
}

// sortResults orders by score, then scoped before global, then newest, then id
func sortResults(results []models.ScoredMemory) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Scoped != b.Scoped {
			return a.Scoped
		}
		if !a.Memory.CreatedAt.Equal(b.Memory.CreatedAt) {
			return a.Memory.CreatedAt.After(b.Memory.CreatedAt)
		}
		return a.Memory.ID < b.Memory.ID
	})
}
