// ABOUTME: Vector math for embeddings: cosine similarity, centroids and query refinement
// ABOUTME: Refinement nudges a query toward the centroid of its candidate set
package embedding

import "math"

// CosineSimilarity returns dot(a,b)/(|a||b|) clamped to [-1, 1].
// Zero vectors and mismatched lengths yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

// Normalize scales v to unit length in place. Returns false for a zero vector.
func Normalize(v []float64) bool {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return false
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
	return true
}

// Centroid returns the component-wise mean of vectors, skipping any whose
// length differs from the first. Returns nil when there is nothing to average.
func Centroid(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	n := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += x
		}
		n++
	}
	if n == 0 || dim == 0 {
		return nil
	}

	for i := range sum {
		sum[i] /= float64(n)
	}
	return sum
}

// Refine returns query + alpha*(centroid(candidates) - query).
// With alpha == 0 or no usable candidates it returns an unmodified copy.
func Refine(query []float64, candidates [][]float64, alpha float64) []float64 {
	out := make([]float64, len(query))
	copy(out, query)

	if alpha == 0 {
		return out
	}
	centroid := Centroid(candidates)
	if len(centroid) != len(query) {
		return out
	}

	for i := range out {
		out[i] += alpha * (centroid[i] - out[i])
	}
	return out
}
