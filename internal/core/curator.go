// ABOUTME: Curator ties extraction, embedding, storage, retrieval and compression into one API
// ABOUTME: Entry point used by the CLI and the MCP server
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harper/factmemory/internal/embedding"
	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/models"
	"github.com/harper/factmemory/internal/util"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDuplicateThreshold = 0.92
	embedConcurrency          = 4
	maxSnippetRunes           = 200
)

// CuratorConfig tunes the write path
type CuratorConfig struct {
	// DuplicateThreshold is the cosine similarity at which a new fact is
	// treated as already known. Values above 1 disable the check.
	DuplicateThreshold float64
	AutoCompress       bool
	Logger             *slog.Logger
}

// Curator owns the memory lifecycle for one store
type Curator struct {
	store      MemoryStore
	embedder   embedding.Embedder
	extractor  Extractor
	retriever  *Retriever
	compressor *Compressor
	coord      *Coordinator
	cfg        CuratorConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewCurator wires the components together
func NewCurator(store MemoryStore, embedder embedding.Embedder, extractor Extractor, retriever *Retriever, compressor *Compressor, coord *Coordinator, cfg CuratorConfig) *Curator {
	if cfg.DuplicateThreshold <= 0 {
		cfg.DuplicateThreshold = DefaultDuplicateThreshold
	}
	return &Curator{
		store:      store,
		embedder:   embedder,
		extractor:  extractor,
		retriever:  retriever,
		compressor: compressor,
		coord:      coord,
		cfg:        cfg,
		logger:     logging.Component(cfg.Logger, "curator"),
		now:        time.Now,
	}
}

// RecordTurn extracts facts from text, embeds and stores the new ones, and
// triggers compression when enabled. Facts that cannot be embedded or that
// duplicate a stored memory are skipped. Only storage failures and
// cancellation are returned as errors; memories stored before a storage
// failure are still returned.
func (c *Curator) RecordTurn(ctx context.Context, text string) ([]models.Memory, error) {
	facts, err := c.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		c.logger.Debug("no facts in turn")
		return []models.Memory{}, nil
	}

	vectors, err := c.embedFacts(ctx, facts)
	if err != nil {
		return nil, err
	}

	existing, err := c.store.List("")
	if err != nil {
		return nil, fmt.Errorf("failed to load memories: %w", err)
	}

	snippet := util.Truncate(text, maxSnippetRunes)
	stored := make([]models.Memory, 0, len(facts))
	for i, fact := range facts {
		vec := vectors[i]
		if vec == nil {
			continue
		}
		if c.isDuplicate(fact.Category, vec, existing, stored) {
			c.logger.Debug("skipping duplicate fact", "content", fact.Content, "category", fact.Category)
			continue
		}

		m := models.Memory{
			ID:            models.NewMemoryID(),
			Content:       fact.Content,
			Category:      fact.Category,
			Embedding:     vec,
			CreatedAt:     c.now().UTC(),
			SourceSnippet: snippet,
		}
		if err := c.store.Put(&m); err != nil {
			return stored, fmt.Errorf("failed to store memory: %w", err)
		}
		stored = append(stored, m)
	}

	c.logger.Info("recorded turn", "facts", len(facts), "stored", len(stored))

	if c.cfg.AutoCompress && len(stored) > 0 {
		outcome := c.compressor.MaybeCompress(ctx)
		c.logger.Debug("compression check", "outcome", outcome.String())
	}
	return stored, nil
}

// embedFacts embeds every fact with bounded concurrency. A fact that fails to
// embed gets a nil vector; only cancellation aborts the batch.
func (c *Curator) embedFacts(ctx context.Context, facts []models.Fact) ([][]float64, error) {
	vectors := make([][]float64, len(facts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, fact := range facts {
		g.Go(func() error {
			vec, err := c.embedder.Embed(gctx, fact.Content)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				level := slog.LevelWarn
				if errors.Is(err, embedding.ErrEmptyText) {
					level = slog.LevelDebug
				}
				c.logger.Log(gctx, level, "skipping fact that could not be embedded", "content", fact.Content, "error", err)
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (c *Curator) isDuplicate(category models.Category, vec []float64, existing, pending []models.Memory) bool {
	for _, set := range [][]models.Memory{existing, pending} {
		for _, m := range set {
			if m.Category != category {
				continue
			}
			if embedding.CosineSimilarity(vec, m.Embedding) >= c.cfg.DuplicateThreshold {
				return true
			}
		}
	}
	return false
}

// Retrieve returns the top k memories for query, inferring its category
func (c *Curator) Retrieve(ctx context.Context, query string, k int) ([]models.ScoredMemory, error) {
	return c.retriever.Retrieve(ctx, query, "", k)
}

// RetrieveInCategory searches category first, widening globally when sparse
func (c *Curator) RetrieveInCategory(ctx context.Context, query string, category models.Category, k int) ([]models.ScoredMemory, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidCategory, category)
	}
	return c.retriever.Retrieve(ctx, query, category, k)
}

// MaybeCompress runs the compressor on demand
func (c *Curator) MaybeCompress(ctx context.Context) models.CompressionOutcome {
	return c.compressor.MaybeCompress(ctx)
}

// Health reports the reasoning service state
func (c *Curator) Health() models.Health {
	return c.coord.Health()
}
