// ABOUTME: Tests for the caching and remote embedder wrappers
// ABOUTME: Uses counting fakes to observe backend calls
package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls atomic.Int64
	dim   int
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	c.calls.Add(1)
	if text == "" {
		return nil, ErrEmptyText
	}
	v := make([]float64, c.dim)
	v[len(text)%c.dim] = 1
	return v, nil
}

func (c *countingEmbedder) Dimension() int { return c.dim }

func TestCachedEmbedderReusesVectors(t *testing.T) {
	inner := &countingEmbedder{dim: 8}
	cached, err := NewCachedEmbedder(inner, 100)
	require.NoError(t, err)
	defer cached.Close()

	first, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	cached.Wait()

	second, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.calls.Load())
	assert.Equal(t, 8, cached.Dimension())
}

func TestCachedEmbedderReturnsCopies(t *testing.T) {
	cached, err := NewCachedEmbedder(&countingEmbedder{dim: 4}, 10)
	require.NoError(t, err)
	defer cached.Close()

	v, err := cached.Embed(context.Background(), "abc")
	require.NoError(t, err)
	cached.Wait()
	v[0] = 99

	again, err := cached.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.NotEqual(t, 99.0, again[0])
}

func TestCachedEmbedderDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{dim: 4}
	cached, err := NewCachedEmbedder(inner, 10)
	require.NoError(t, err)
	defer cached.Close()

	_, err = cached.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
	cached.Wait()
	_, _ = cached.Embed(context.Background(), "")
	assert.Equal(t, int64(2), inner.calls.Load())
}

func TestNewCachedEmbedderRejectsBadSize(t *testing.T) {
	_, err := NewCachedEmbedder(&countingEmbedder{dim: 4}, 0)
	assert.Error(t, err)
}

type fakeGenerator struct {
	vec []float64
	err error
}

func (f fakeGenerator) GenerateEmbedding(context.Context, string) ([]float64, error) {
	return f.vec, f.err
}

func TestRemoteEmbedder(t *testing.T) {
	t.Run("returns vector", func(t *testing.T) {
		r, err := NewRemoteEmbedder(fakeGenerator{vec: []float64{1, 0, 0}}, 3)
		require.NoError(t, err)
		v, err := r.Embed(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 0, 0}, v)
	})

	t.Run("rejects wrong dimension", func(t *testing.T) {
		r, err := NewRemoteEmbedder(fakeGenerator{vec: []float64{1, 0}}, 3)
		require.NoError(t, err)
		_, err = r.Embed(context.Background(), "x")
		assert.Error(t, err)
	})

	t.Run("empty text", func(t *testing.T) {
		r, err := NewRemoteEmbedder(fakeGenerator{}, 3)
		require.NoError(t, err)
		_, err = r.Embed(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("wraps backend error", func(t *testing.T) {
		boom := errors.New("boom")
		r, err := NewRemoteEmbedder(fakeGenerator{err: boom}, 3)
		require.NoError(t, err)
		_, err = r.Embed(context.Background(), "x")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("requires generator", func(t *testing.T) {
		_, err := NewRemoteEmbedder(nil, 3)
		assert.Error(t, err)
	})
}
