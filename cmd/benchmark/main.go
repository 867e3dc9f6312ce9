// ABOUTME: Command-line runner for the retrieval benchmark
// ABOUTME: Scores labelled scenarios for several alpha values and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/harper/factmemory/benchmarks/retrieval"
	"github.com/harper/factmemory/internal/config"
	"github.com/harper/factmemory/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	// Command-line flags
	scenarioID := flag.String("scenario", "", "Run one scenario (food, allergy, travel). If empty, runs all.")
	alphaList := flag.String("alphas", "0,0.05,0.1,0.2", "Comma-separated refinement weights to compare")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	minRecall := flag.Float64("min-recall", retrieval.DefaultMinRecall, "Mean recall@k a scenario needs to pass")
	useService := flag.Bool("service", false, "Extract facts with the configured reasoning service instead of local rules")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil && *useService {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !*useService {
		cfg.Reasoner = config.ReasonerNone
	}

	alphas, err := parseAlphas(*alphaList)
	if err != nil {
		log.Fatalf("Invalid --alphas: %v", err)
	}

	scenarios := retrieval.GetAllScenarios()
	if *scenarioID != "" {
		scenarios = filterScenarios(scenarios, *scenarioID)
		if len(scenarios) == 0 {
			log.Fatalf("Unknown scenario: %s (valid options: food, allergy, travel)", *scenarioID)
		}
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(os.Stderr, level, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("Memory Retrieval Benchmark")
	fmt.Println("========================================")
	fmt.Printf("Embedder: %s (dim %d), extraction: %s\n", cfg.Embedder, cfg.VectorDimension, cfg.ResolvedReasoner())

	runner := retrieval.NewBenchmarkRunner(cfg, logger, *minRecall, *verbose)
	results, err := runner.RunAll(context.Background(), scenarios, alphas)
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	failed := 0
	for _, result := range results {
		fmt.Printf("%-8s alpha=%.2f  recall@%d=%.2f  MRR=%.2f  %s\n",
			result.ScenarioID, result.Alpha, result.K, result.RecallAtK, result.MRR, result.Status)
		if result.Status != "PASS" {
			failed++
		}
	}

	fmt.Println()
	for _, s := range retrieval.Summarize(results) {
		fmt.Printf("alpha=%.2f  mean recall@k=%.3f  mean MRR=%.3f\n", s.Alpha, s.RecallAtK, s.MRR)
	}

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}
	fmt.Printf("\n✓ Results exported to: %s\n", *outputPath)

	// Exit with error code if any run failed
	if failed > 0 {
		os.Exit(1)
	}
}

func parseAlphas(s string) ([]float64, error) {
	var alphas []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		if a < 0 || a > 1 {
			return nil, fmt.Errorf("alpha %v outside [0, 1]", a)
		}
		alphas = append(alphas, a)
	}
	if len(alphas) == 0 {
		return nil, fmt.Errorf("no alpha values given")
	}
	return alphas, nil
}

func filterScenarios(all []retrieval.Scenario, id string) []retrieval.Scenario {
	for _, s := range all {
		if s.ID == id {
			return []retrieval.Scenario{s}
		}
	}
	return nil
}
