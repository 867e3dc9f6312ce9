// ABOUTME: Retrieval metrics for the benchmark: recall@k and reciprocal rank
// ABOUTME: Relevance is judged by case-insensitive substring match against ground truth

package retrieval

import (
	"fmt"
	"strings"
)

// MetricsCalculator computes retrieval scores
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateRecall returns the fraction of expected items found in the retrieved contents
func (m *MetricsCalculator) CalculateRecall(retrieved []string, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No retrieval required"
	}

	found := 0
	var missing []string
	for _, item := range expected {
		if indexOf(retrieved, item) >= 0 {
			found++
		} else {
			missing = append(missing, item)
		}
	}

	recall := float64(found) / float64(len(expected))
	if recall == 1.0 {
		return 1.0, "All expected items retrieved"
	}
	return recall, fmt.Sprintf("Partial recall (%.2f) - missing items: %v", recall, missing)
}

// CalculateReciprocalRank returns 1/rank of the first retrieved content matching
// any expected item, or 0 when none match
func (m *MetricsCalculator) CalculateReciprocalRank(retrieved []string, expected []string) float64 {
	best := -1
	for _, item := range expected {
		if i := indexOf(retrieved, item); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return 1.0 / float64(best+1)
}

func indexOf(retrieved []string, item string) int {
	needle := strings.ToUpper(item)
	for i, content := range retrieved {
		if strings.Contains(strings.ToUpper(content), needle) {
			return i
		}
	}
	return -1
}
