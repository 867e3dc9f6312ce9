// ABOUTME: Tests for the retrieval benchmark metrics and runner
// ABOUTME: Runs small scenarios offline with the hash embedder and local extraction

package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harper/factmemory/internal/config"
	"github.com/harper/factmemory/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Reasoner = config.ReasonerNone
	cfg.Embedder = config.EmbedderHash
	return cfg
}

func TestCalculateRecall(t *testing.T) {
	m := NewMetricsCalculator()
	retrieved := []string{"Loves Thai food", "Is vegetarian"}

	recall, _ := m.CalculateRecall(retrieved, []string{"thai", "VEGETARIAN"})
	assert.Equal(t, 1.0, recall)

	recall, detail := m.CalculateRecall(retrieved, []string{"Thai", "Japan"})
	assert.Equal(t, 0.5, recall)
	assert.Contains(t, detail, "Japan")

	recall, _ = m.CalculateRecall(nil, nil)
	assert.Equal(t, 1.0, recall)
}

func TestCalculateReciprocalRank(t *testing.T) {
	m := NewMetricsCalculator()
	retrieved := []string{"Lives in Portland", "Going to Japan in April", "Visited Lisbon last summer"}

	assert.Equal(t, 0.5, m.CalculateReciprocalRank(retrieved, []string{"Japan"}))
	assert.Equal(t, 0.5, m.CalculateReciprocalRank(retrieved, []string{"Lisbon", "Japan"}), "best rank wins")
	assert.Equal(t, 1.0, m.CalculateReciprocalRank(retrieved, []string{"portland"}))
	assert.Equal(t, 0.0, m.CalculateReciprocalRank(retrieved, []string{"Tokyo"}))
}

func TestRunScenario(t *testing.T) {
	scenario := Scenario{
		ID:   "mini",
		Name: "mini",
		Turns: []string{
			"I live in Portland",
			"I love Thai food",
			"I'm going to Japan in April",
		},
		Queries: []Query{
			{Text: "Thai food", Expected: []string{"Thai"}},
			{Text: "Where am I going in April?", Expected: []string{"Japan"}},
		},
	}
	r := NewBenchmarkRunner(offlineConfig(), logging.Discard(), 0, false)

	for _, alpha := range []float64{0, 0.1} {
		res, err := r.RunScenario(context.Background(), scenario, alpha)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Stored)
		assert.Equal(t, 2, res.Queries)
		assert.Equal(t, 1.0, res.RecallAtK)
		assert.Equal(t, 1.0, res.MRR)
		assert.Equal(t, "PASS", res.Status)
		assert.Equal(t, alpha, res.Alpha)
	}
}

func TestRunAllIsolatesRuns(t *testing.T) {
	r := NewBenchmarkRunner(offlineConfig(), logging.Discard(), 0, false)
	scenario := Scenario{ID: "one", Turns: []string{"I'm allergic to peanuts"}}

	results, err := r.RunAll(context.Background(), []Scenario{scenario, scenario}, []float64{0, 0.2})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, res := range results {
		assert.Equal(t, 1, res.Stored, "each run starts from an empty store")
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Alpha: 0, RecallAtK: 1, MRR: 1},
		{Alpha: 0, RecallAtK: 0.5, MRR: 0.5},
		{Alpha: 0.1, RecallAtK: 1, MRR: 0.5},
	}

	summary := Summarize(results)
	require.Len(t, summary, 2)
	assert.Equal(t, AlphaSummary{Alpha: 0, RecallAtK: 0.75, MRR: 0.75}, summary[0])
	assert.Equal(t, AlphaSummary{Alpha: 0.1, RecallAtK: 1, MRR: 0.5}, summary[1])
}

func TestExportResults(t *testing.T) {
	r := NewBenchmarkRunner(offlineConfig(), logging.Discard(), 0.5, false)
	path := filepath.Join(t.TempDir(), "results.json")

	require.NoError(t, r.ExportResults([]Result{{ScenarioID: "x", Status: "PASS"}}, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"by_alpha"`)
	assert.Contains(t, string(data), `"passed": 1`)
}
