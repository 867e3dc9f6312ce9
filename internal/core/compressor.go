// ABOUTME: Compressor replaces the oldest uncompressed memories with one service-written summary
// ABOUTME: Single-flight; any failure leaves the store untouched and is reported as an outcome
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harper/factmemory/internal/embedding"
	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/models"
	"github.com/harper/factmemory/internal/util"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultCompressionThreshold = 50
	DefaultCompressionBatch     = 25
	maxSummaryRunes             = 2000
	minCompressionBatch         = 2
)

const summaryPromptTemplate = `Summarize these user facts into 3-5 concise factual statements. Preserve key details (names, preferences, allergies, places). Output only the summary, no preamble.

Facts:
%s`

// MemoryStore is everything the core needs from the Memory Store
type MemoryStore interface {
	MemoryReader
	Put(m *models.Memory) error
	Count() (int, error)
	OldestUncompressed(limit int) ([]models.Memory, error)
	Replace(oldIDs []string, replacement *models.Memory) error
}

// CompressorConfig tunes compression. Zero values take the defaults.
type CompressorConfig struct {
	Threshold int
	BatchSize int
	Category  models.Category
	Logger    *slog.Logger
}

// Compressor bounds store growth
type Compressor struct {
	store    MemoryStore
	embedder embedding.Embedder
	coord    *Coordinator
	cfg      CompressorConfig
	inFlight *semaphore.Weighted
	logger   *slog.Logger
	now      func() time.Time
}

// NewCompressor creates a Compressor
func NewCompressor(store MemoryStore, embedder embedding.Embedder, coord *Coordinator, cfg CompressorConfig) *Compressor {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultCompressionThreshold
	}
	if cfg.BatchSize < minCompressionBatch {
		cfg.BatchSize = DefaultCompressionBatch
	}
	if !cfg.Category.Valid() {
		cfg.Category = models.CategoryMisc
	}
	return &Compressor{
		store:    store,
		embedder: embedder,
		coord:    coord,
		cfg:      cfg,
		inFlight: semaphore.NewWeighted(1),
		logger:   logging.Component(cfg.Logger, "compressor"),
		now:      time.Now,
	}
}

// MaybeCompress checks the threshold and compresses if needed. Safe to call
// after every write; a call that overlaps a running compression is skipped.
func (c *Compressor) MaybeCompress(ctx context.Context) models.CompressionOutcome {
	if !c.inFlight.TryAcquire(1) {
		return skipped("compression already in progress")
	}
	defer c.inFlight.Release(1)

	count, err := c.store.Count()
	if err != nil {
		return c.failed(fmt.Errorf("count memories: %w", err))
	}
	if count <= c.cfg.Threshold {
		return skipped("")
	}

	batch, err := c.store.OldestUncompressed(c.cfg.BatchSize)
	if err != nil {
		return c.failed(fmt.Errorf("select memories: %w", err))
	}
	if len(batch) < minCompressionBatch {
		return skipped(fmt.Sprintf("only %d uncompressed memories", len(batch)))
	}

	if !c.coord.ShouldAttempt() {
		return c.failed(fmt.Errorf("%w: %s", ErrServiceUnavailable, c.coord.Health().LastError))
	}

	summary, err := c.summarize(ctx, batch)
	if err != nil {
		return c.failed(err)
	}

	content := models.CompressedPrefix + summary
	vec, err := c.embedder.Embed(ctx, content)
	if err != nil {
		return c.failed(fmt.Errorf("embed summary: %w", err))
	}

	ids := make([]string, len(batch))
	for i, m := range batch {
		ids[i] = m.ID
	}
	replacement := &models.Memory{
		ID:            models.NewMemoryID(),
		Content:       content,
		Category:      c.cfg.Category,
		Embedding:     vec,
		CreatedAt:     c.now().UTC(),
		SourceSnippet: rangeSnippet(batch),
		Compressed:    true,
	}

	if err := c.store.Replace(ids, replacement); err != nil {
		return c.failed(fmt.Errorf("replace memories: %w", err))
	}

	c.logger.Info("compressed memories", "removed", len(ids), "summary_id", replacement.ID, "before", count)
	return models.CompressionOutcome{
		Status:  models.CompressionCompressed,
		Removed: len(ids),
		Summary: replacement,
	}
}

func (c *Compressor) summarize(ctx context.Context, batch []models.Memory) (string, error) {
	var facts strings.Builder
	for _, m := range batch {
		facts.WriteString("- ")
		facts.WriteString(strings.TrimPrefix(m.Content, models.CompressedPrefix))
		facts.WriteString("\n")
	}

	out, err := c.coord.Complete(ctx, "compress", "", fmt.Sprintf(summaryPromptTemplate, facts.String()))
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(out)
	if m := codeFence.FindStringSubmatch(summary); m != nil {
		summary = strings.TrimSpace(m[1])
	}
	if summary == "" {
		err := fmt.Errorf("%w: empty summary", ErrMalformedOutput)
		c.coord.RecordFailure("compress", err)
		return "", err
	}
	return util.Truncate(summary, maxSummaryRunes), nil
}

func (c *Compressor) failed(err error) models.CompressionOutcome {
	level := slog.LevelWarn
	if errors.Is(err, ErrServiceUnavailable) {
		level = slog.LevelInfo
	}
	c.logger.Log(context.Background(), level, "compression failed", "error", err)
	return models.CompressionOutcome{Status: models.CompressionFailed, Reason: err.Error()}
}

func skipped(reason string) models.CompressionOutcome {
	return models.CompressionOutcome{Status: models.CompressionSkipped, Reason: reason}
}

// rangeSnippet names the time range a summary replaced
func rangeSnippet(batch []models.Memory) string {
	first, last := batch[0].CreatedAt, batch[0].CreatedAt
	for _, m := range batch[1:] {
		if m.CreatedAt.Before(first) {
			first = m.CreatedAt
		}
		if m.CreatedAt.After(last) {
			last = m.CreatedAt
		}
	}
	return fmt.Sprintf("compressed %d memories from %s to %s",
		len(batch), first.Format(time.RFC3339), last.Format(time.RFC3339))
}
