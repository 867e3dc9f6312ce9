// ABOUTME: Runner for the retrieval benchmark - records scenarios and scores queries per alpha
// ABOUTME: Each run gets a fresh in-memory store so scenarios and alphas cannot interfere

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/harper/factmemory/internal/app"
	"github.com/harper/factmemory/internal/config"
	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/models"
)

// DefaultMinRecall is the mean recall@k a scenario needs to pass
const DefaultMinRecall = 0.8

// BenchmarkRunner executes retrieval benchmark scenarios
type BenchmarkRunner struct {
	base      *config.Config
	logger    *slog.Logger
	metrics   *MetricsCalculator
	minRecall float64
	verbose   bool
}

// NewBenchmarkRunner creates a runner. base supplies every setting except the
// database path and alpha, which each run overrides.
func NewBenchmarkRunner(base *config.Config, logger *slog.Logger, minRecall float64, verbose bool) *BenchmarkRunner {
	if logger == nil {
		logger = logging.Discard()
	}
	if minRecall <= 0 {
		minRecall = DefaultMinRecall
	}
	return &BenchmarkRunner{
		base:      base,
		logger:    logger,
		metrics:   NewMetricsCalculator(),
		minRecall: minRecall,
		verbose:   verbose,
	}
}

// RunScenario records the scenario's turns and scores its queries at one alpha
func (r *BenchmarkRunner) RunScenario(ctx context.Context, scenario Scenario, alpha float64) (Result, error) {
	cfg := *r.base
	cfg.DBPath = app.InMemoryPath
	cfg.RefineAlpha = alpha
	cfg.AutoCompress = false

	a, err := app.New(&cfg, r.logger)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create memory system: %w", err)
	}
	defer func() { _ = a.Close() }()

	if r.verbose {
		fmt.Printf("\n[%s] alpha=%.2f: %s\n", scenario.ID, alpha, scenario.Description)
	}

	stored := 0
	for i, turn := range scenario.Turns {
		memories, err := a.Curator.RecordTurn(ctx, turn)
		if err != nil {
			return Result{}, fmt.Errorf("turn %d failed: %w", i+1, err)
		}
		stored += len(memories)
		if r.verbose {
			for _, m := range memories {
				fmt.Printf("  + [%s] %s\n", m.Category, m.Content)
			}
		}
	}

	k := cfg.TopK
	var recallSum, rrSum float64
	perQuery := make([]map[string]interface{}, 0, len(scenario.Queries))
	for _, q := range scenario.Queries {
		var results []models.ScoredMemory
		if q.Category != "" {
			results, err = a.Curator.RetrieveInCategory(ctx, q.Text, q.Category, k)
		} else {
			results, err = a.Curator.Retrieve(ctx, q.Text, k)
		}
		if err != nil {
			return Result{}, fmt.Errorf("query %q failed: %w", q.Text, err)
		}

		contents := make([]string, len(results))
		for i, res := range results {
			contents[i] = res.Memory.Content
		}
		recall, detail := r.metrics.CalculateRecall(contents, q.Expected)
		rr := r.metrics.CalculateReciprocalRank(contents, q.Expected)
		recallSum += recall
		rrSum += rr

		if r.verbose {
			fmt.Printf("  ? %s -> recall %.2f, rr %.2f\n", q.Text, recall, rr)
		}
		perQuery = append(perQuery, map[string]interface{}{
			"query":     q.Text,
			"recall":    recall,
			"rr":        rr,
			"detail":    detail,
			"retrieved": contents,
		})
	}

	result := Result{
		ScenarioID:   scenario.ID,
		ScenarioName: scenario.Name,
		Alpha:        alpha,
		K:            k,
		Stored:       stored,
		Queries:      len(scenario.Queries),
		Status:       "FAIL",
		Details:      map[string]interface{}{"queries": perQuery},
	}
	if n := len(scenario.Queries); n > 0 {
		result.RecallAtK = recallSum / float64(n)
		result.MRR = rrSum / float64(n)
	} else {
		result.RecallAtK = 1
		result.MRR = 1
	}
	if result.RecallAtK >= r.minRecall {
		result.Status = "PASS"
	}
	return result, nil
}

// RunAll runs every scenario at every alpha
func (r *BenchmarkRunner) RunAll(ctx context.Context, scenarios []Scenario, alphas []float64) ([]Result, error) {
	results := make([]Result, 0, len(scenarios)*len(alphas))
	for _, alpha := range alphas {
		for _, scenario := range scenarios {
			result, err := r.RunScenario(ctx, scenario, alpha)
			if err != nil {
				return nil, fmt.Errorf("scenario %s at alpha %.2f failed: %w", scenario.ID, alpha, err)
			}
			results = append(results, result)
		}
	}
	return results, nil
}

// AlphaSummary aggregates results for one alpha
type AlphaSummary struct {
	Alpha     float64 `json:"alpha"`
	RecallAtK float64 `json:"recall_at_k"`
	MRR       float64 `json:"mrr"`
}

// Summarize averages recall@k and MRR per alpha, in first-seen order
func Summarize(results []Result) []AlphaSummary {
	var order []float64
	sums := make(map[float64]*AlphaSummary)
	counts := make(map[float64]int)
	for _, res := range results {
		s, ok := sums[res.Alpha]
		if !ok {
			s = &AlphaSummary{Alpha: res.Alpha}
			sums[res.Alpha] = s
			order = append(order, res.Alpha)
		}
		s.RecallAtK += res.RecallAtK
		s.MRR += res.MRR
		counts[res.Alpha]++
	}

	out := make([]AlphaSummary, 0, len(order))
	for _, alpha := range order {
		s := sums[alpha]
		n := float64(counts[alpha])
		out = append(out, AlphaSummary{Alpha: alpha, RecallAtK: s.RecallAtK / n, MRR: s.MRR / n})
	}
	return out
}

// ExportResults writes results and per-alpha summaries as JSON
func (r *BenchmarkRunner) ExportResults(results []Result, outputPath string) error {
	passed := 0
	for _, res := range results {
		if res.Status == "PASS" {
			passed++
		}
	}

	summary := map[string]interface{}{
		"timestamp":  time.Now().Format(time.RFC3339),
		"embedder":   r.base.Embedder,
		"reasoner":   r.base.ResolvedReasoner(),
		"min_recall": r.minRecall,
		"total_runs": len(results),
		"passed":     passed,
		"failed":     len(results) - passed,
		"by_alpha":   Summarize(results),
		"results":    results,
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
