// ABOUTME: Tests for prompt context assembly and token budgeting
// ABOUTME: Checks section layout, message prefixes and trimming order
package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/factmemory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	results []models.ScoredMemory
	err     error
	queries []string
}

func (s *stubSearcher) Retrieve(_ context.Context, query string, _ int) ([]models.ScoredMemory, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

func scored(content string, category models.Category, score float64) models.ScoredMemory {
	return models.ScoredMemory{
		Memory: models.Memory{ID: models.NewMemoryID(), Content: content, Category: category},
		Score:  score,
	}
}

func TestRenderContextLayout(t *testing.T) {
	memories := []models.ScoredMemory{
		scored("Loves Thai food", models.CategoryFood, 0.8),
		scored("Vegetarian diet", models.CategoryFood, 0.5),
	}
	recent := []ChatMessage{
		{Role: "user", Content: "Any dinner ideas?"},
		{Role: "assistant", Content: "How about a curry?"},
	}

	want := "Relevant memories:\n" +
		"- [food] Loves Thai food\n" +
		"- [food] Vegetarian diet\n" +
		"\n" +
		"Recent conversation:\n" +
		"User: Any dinner ideas?\n" +
		"Assistant: How about a curry?"
	assert.Equal(t, want, RenderContext(memories, recent, 0))
}

func TestRenderContextWithoutMemoriesOrMessages(t *testing.T) {
	assert.Equal(t, "Recent conversation:\n(No previous messages)", RenderContext(nil, nil, 0))
}

func TestRenderContextTrimsToBudget(t *testing.T) {
	memories := []models.ScoredMemory{
		scored("Best memory", models.CategoryMisc, 0.9),
		scored(strings.Repeat("filler ", 40), models.CategoryMisc, 0.1),
	}
	recent := []ChatMessage{
		{Role: "user", Content: strings.Repeat("old ", 40)},
		{Role: "user", Content: "latest question"},
	}

	out := RenderContext(memories, recent, 40)
	assert.LessOrEqual(t, len(out), 40*charsPerToken)
	assert.Contains(t, out, "Best memory")
	assert.NotContains(t, out, "filler")
	assert.Contains(t, out, "latest question")
	assert.NotContains(t, out, "old old")

	// A tiny budget still keeps the conversation header
	tiny := RenderContext(memories, recent, 1)
	assert.True(t, strings.HasPrefix(tiny, "Recent conversation:"))
}

func TestContextHydratorHydrate(t *testing.T) {
	searcher := &stubSearcher{results: []models.ScoredMemory{scored("Allergic to peanuts", models.CategoryPersonal, 0.7)}}
	h := NewContextHydrator(searcher, 3)

	out, err := h.Hydrate(context.Background(), "Can I eat satay?", nil, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "- [personal] Allergic to peanuts")
	assert.Equal(t, []string{"Can I eat satay?"}, searcher.queries)

	out, err = h.Hydrate(context.Background(), "   ", nil, 0)
	require.NoError(t, err)
	assert.NotContains(t, out, "Relevant memories:")
	assert.Len(t, searcher.queries, 1, "blank message is not searched")
}

func TestContextHydratorSearchError(t *testing.T) {
	h := NewContextHydrator(&stubSearcher{err: errors.New("db closed")}, 3)

	_, err := h.Hydrate(context.Background(), "hello", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db closed")
}
