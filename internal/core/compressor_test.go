// ABOUTME: Tests for threshold-triggered compression and its failure modes
// ABOUTME: Verifies count arithmetic, untouched stores on failure and single-flight triggering
package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harper/factmemory/internal/embedding"
	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSummary = "User is Alex, a nurse in Portland. Allergic to peanuts. Has a dog named Biscuit."

func newTestCompressor(store MemoryStore, emb embedding.Embedder, coord *Coordinator, threshold, batch int) *Compressor {
	return NewCompressor(store, emb, coord, CompressorConfig{
		Threshold: threshold,
		BatchSize: batch,
		Category:  models.CategoryMisc,
		Logger:    logging.Discard(),
	})
}

func uncompressedSeeds(n int) []seed {
	out := make([]seed, 0, n)
	for _, s := range sampleDataset {
		if !s.compressed && len(out) < n {
			out = append(out, s)
		}
	}
	return out
}

func TestCompressorThresholdScenario(t *testing.T) {
	for _, batch := range []int{4, 25} {
		store := newTestStore(t)
		emb := newTestEmbedder(t)
		seeded := seedMemories(t, store, emb, uncompressedSeeds(6))
		r := &fakeReasoner{answer: testSummary}
		c := newTestCompressor(store, emb, newTestCoordinator(r), 5, batch)

		outcome := c.MaybeCompress(context.Background())
		require.Equal(t, models.CompressionCompressed, outcome.Status, outcome.String())

		n := outcome.Removed
		assert.Equal(t, min(batch, 6), n)

		count, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 6-n+1, count)

		all, err := store.List("")
		require.NoError(t, err)
		var summaries []models.Memory
		for _, m := range all {
			if m.Compressed {
				summaries = append(summaries, m)
			}
		}
		require.Len(t, summaries, 1)
		summary := summaries[0]
		assert.Equal(t, models.CompressedPrefix+testSummary, summary.Content)
		assert.Equal(t, models.CategoryMisc, summary.Category)
		assert.Len(t, summary.Embedding, testDim)
		assert.Contains(t, summary.SourceSnippet, "compressed")
		assert.Equal(t, outcome.Summary.ID, summary.ID)

		// The oldest n were removed; the rest survive
		for i, m := range seeded {
			got, err := store.Get(m.ID)
			require.NoError(t, err)
			if i < n {
				assert.Nil(t, got, "%q should be compressed away", m.Content)
			} else {
				assert.NotNil(t, got, "%q should survive", m.Content)
			}
		}

		require.Len(t, r.prompts, 1)
		assert.Contains(t, r.prompts[0], "- Name is Alex\n")
		assert.True(t, strings.HasPrefix(r.prompts[0], "Summarize these user facts"))
	}
}

func TestCompressorSkipsAtOrBelowThreshold(t *testing.T) {
	store := newTestStore(t)
	emb := newTestEmbedder(t)
	seedMemories(t, store, emb, uncompressedSeeds(5))
	r := &fakeReasoner{answer: testSummary}
	c := newTestCompressor(store, emb, newTestCoordinator(r), 5, 25)

	outcome := c.MaybeCompress(context.Background())
	assert.Equal(t, models.CompressionSkipped, outcome.Status)
	assert.Equal(t, "skipped", outcome.String())
	assert.Equal(t, 0, r.callCount())

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestCompressorSkipsWithTooFewUncompressed(t *testing.T) {
	store := newTestStore(t)
	emb := newTestEmbedder(t)
	seeds := []seed{
		{models.CompressedPrefix + "Summary one", models.CategoryMisc, true},
		{models.CompressedPrefix + "Summary two", models.CategoryMisc, true},
		{models.CompressedPrefix + "Summary three", models.CategoryMisc, true},
		{"Loves Thai food", models.CategoryFood, false},
	}
	seedMemories(t, store, emb, seeds)
	r := &fakeReasoner{answer: testSummary}
	c := newTestCompressor(store, emb, newTestCoordinator(r), 2, 25)

	outcome := c.MaybeCompress(context.Background())
	assert.Equal(t, models.CompressionSkipped, outcome.Status)
	assert.Contains(t, outcome.Reason, "only 1")
	assert.Equal(t, 0, r.callCount())
}

func TestCompressorFailureLeavesStoreUntouched(t *testing.T) {
	tests := []struct {
		name     string
		reasoner *fakeReasoner
	}{
		{"service error", &fakeReasoner{err: errors.New("rate limited")}},
		{"empty summary", &fakeReasoner{answer: "   "}},
		{"empty fenced summary", &fakeReasoner{answer: "```\n```"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			emb := newTestEmbedder(t)
			seedMemories(t, store, emb, uncompressedSeeds(6))
			before, err := store.List("")
			require.NoError(t, err)

			coord := newTestCoordinator(tt.reasoner)
			c := newTestCompressor(store, emb, coord, 5, 25)

			outcome := c.MaybeCompress(context.Background())
			assert.Equal(t, models.CompressionFailed, outcome.Status)
			assert.NotEmpty(t, outcome.Reason)
			assert.Equal(t, models.HealthDegraded, coord.Health().State)

			after, err := store.List("")
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestCompressorWithoutReasoner(t *testing.T) {
	store := newTestStore(t)
	emb := newTestEmbedder(t)
	seedMemories(t, store, emb, uncompressedSeeds(6))
	coord := NewCoordinator(nil, CoordinatorConfig{Logger: logging.Discard()})
	c := newTestCompressor(store, emb, coord, 5, 25)

	outcome := c.MaybeCompress(context.Background())
	assert.Equal(t, models.CompressionFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, "not configured")

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestCompressorUsesConfiguredCategory(t *testing.T) {
	store := newTestStore(t)
	emb := newTestEmbedder(t)
	seedMemories(t, store, emb, uncompressedSeeds(3))
	c := NewCompressor(store, emb, newTestCoordinator(&fakeReasoner{answer: testSummary}), CompressorConfig{
		Threshold: 2,
		Category:  models.CategoryPersonal,
		Logger:    logging.Discard(),
	})

	outcome := c.MaybeCompress(context.Background())
	require.Equal(t, models.CompressionCompressed, outcome.Status)
	assert.Equal(t, models.CategoryPersonal, outcome.Summary.Category)
	assert.True(t, outcome.Summary.Compressed)
}

func TestCompressorSingleFlight(t *testing.T) {
	store := newTestStore(t)
	emb := newTestEmbedder(t)
	seedMemories(t, store, emb, uncompressedSeeds(6))
	r := &fakeReasoner{answer: testSummary, delay: 200 * time.Millisecond}
	c := newTestCompressor(store, emb, newTestCoordinator(r), 5, 25)

	var (
		wg    sync.WaitGroup
		first models.CompressionOutcome
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = c.MaybeCompress(context.Background())
	}()

	require.Eventually(t, func() bool { return r.callCount() == 1 }, time.Second, 5*time.Millisecond)

	second := c.MaybeCompress(context.Background())
	assert.Equal(t, models.CompressionSkipped, second.Status)
	assert.Contains(t, second.Reason, "in progress")

	wg.Wait()
	assert.Equal(t, models.CompressionCompressed, first.Status)
	assert.Equal(t, 1, r.callCount())

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCompressorConcurrentTriggers(t *testing.T) {
	store := newTestStore(t)
	emb := newTestEmbedder(t)
	seedMemories(t, store, emb, uncompressedSeeds(6))
	r := &fakeReasoner{answer: testSummary, delay: 20 * time.Millisecond}
	c := newTestCompressor(store, emb, newTestCoordinator(r), 5, 25)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []models.CompressionOutcome
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := c.MaybeCompress(context.Background())
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
		}()
	}
	wg.Wait()

	compressed := 0
	for _, o := range outcomes {
		assert.NotEqual(t, models.CompressionFailed, o.Status, o.String())
		if o.Status == models.CompressionCompressed {
			compressed++
		}
	}
	assert.Equal(t, 1, compressed)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
