// ABOUTME: Tests for vector math
// ABOUTME: Cosine bounds, symmetry and identity; centroid and refinement behavior
package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"mismatched length", []float64{1, 0}, []float64{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilaritySymmetricAndBounded(t *testing.T) {
	vectors := [][]float64{
		{0.3, -0.2, 0.9, 0.1},
		{-0.5, 0.5, 0.5, -0.5},
		{1e-12, 1e12, -3, 7},
		{2, 2, 2, 2},
	}

	for _, a := range vectors {
		self := CosineSimilarity(a, a)
		assert.InDelta(t, 1, self, 1e-9, "cosine(a, a) for %v", a)
		for _, b := range vectors {
			ab := CosineSimilarity(a, b)
			assert.Equal(t, ab, CosineSimilarity(b, a))
			assert.GreaterOrEqual(t, ab, -1.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestNormalize(t *testing.T) {
	v := []float64{3, 4}
	require.True(t, Normalize(v))
	assert.InDelta(t, 0.6, v[0], 1e-9)
	assert.InDelta(t, 0.8, v[1], 1e-9)

	assert.False(t, Normalize([]float64{0, 0}))
}

func TestCentroid(t *testing.T) {
	c := Centroid([][]float64{{1, 0}, {0, 1}, {1, 1, 1}})
	assert.Equal(t, []float64{0.5, 0.5}, c)

	assert.Nil(t, Centroid(nil))
}

func TestRefine(t *testing.T) {
	query := []float64{1, 0}
	candidates := [][]float64{{0, 1}}

	t.Run("alpha zero returns copy", func(t *testing.T) {
		out := Refine(query, candidates, 0)
		assert.Equal(t, query, out)
		out[0] = 42
		assert.Equal(t, 1.0, query[0], "input must not be aliased")
	})

	t.Run("no candidates returns copy", func(t *testing.T) {
		assert.Equal(t, query, Refine(query, nil, 0.5))
	})

	t.Run("moves toward centroid", func(t *testing.T) {
		out := Refine(query, candidates, 0.1)
		assert.InDelta(t, 0.9, out[0], 1e-9)
		assert.InDelta(t, 0.1, out[1], 1e-9)
		assert.Equal(t, []float64{1, 0}, query)
	})

	t.Run("alpha one lands on centroid", func(t *testing.T) {
		out := Refine(query, [][]float64{{0, 1}, {0, 3}}, 1)
		assert.InDelta(t, 0, out[0], 1e-9)
		assert.InDelta(t, 2, out[1], 1e-9)
	})
}

func TestRefinePreservesFiniteness(t *testing.T) {
	out := Refine([]float64{1, 2, 3}, [][]float64{{4, 5, 6}}, 0.25)
	for _, x := range out {
		assert.False(t, math.IsNaN(x) || math.IsInf(x, 0))
	}
}
