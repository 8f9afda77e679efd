// ABOUTME: Command-line evaluation runner for retrieval and answer quality
// ABOUTME: Runs a YAML dataset against the configured pipeline and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/eval"
	"github.com/harper/ragdoc/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	datasetPath := flag.String("dataset", "", "Path to the YAML evaluation dataset (required)")
	caseID := flag.String("test", "", "Run a single case by id. If empty, runs all cases.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	answers := flag.Bool("answers", false, "Generate answers and score faithfulness")
	skipIngest := flag.Bool("skip-ingest", false, "Do not ingest the dataset's documents first")
	threshold := flag.Float64("threshold", eval.DefaultPassThreshold, "Minimum metric score for a PASS")
	configFile := flag.String("config", "", "Path to a YAML config file")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if *datasetPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -dataset is required")
		flag.Usage()
		return 2
	}

	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logCfg := logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON}
	if *verbose {
		logCfg.Level = "debug"
	}
	log := logger.New(logCfg)

	ds, err := eval.LoadDataset(*datasetPath)
	if err != nil {
		log.Error("failed to load dataset", "error", err)
		return 1
	}
	if *caseID != "" {
		c, ok := ds.Case(*caseID)
		if !ok {
			log.Error("unknown case", "id", *caseID)
			return 1
		}
		ds.Cases = []eval.Case{c}
	}

	fmt.Println("========================================")
	fmt.Printf("ragdoc evaluation: %s\n", ds.Name)
	fmt.Println("========================================")

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		return 1
	}
	defer a.Close()

	opts := []eval.Option{
		eval.WithAnswers(*answers),
		eval.WithPassThreshold(*threshold),
		eval.WithLogger(log.With("component", "eval")),
	}
	if !*skipIngest {
		opts = append(opts, eval.WithIngester(a.Pipeline))
	}
	runner, err := eval.NewRunner(a.Retriever, opts...)
	if err != nil {
		log.Error("failed to create runner", "error", err)
		return 1
	}

	if err := runner.Prepare(ctx, ds); err != nil {
		log.Error("failed to ingest dataset documents", "error", err)
		return 1
	}

	report, err := runner.Run(ctx, ds)
	if err != nil {
		log.Error("evaluation failed", "error", err)
		return 1
	}

	fmt.Println("\n========================================")
	fmt.Println("EVALUATION SUMMARY")
	fmt.Println("========================================")

	for _, result := range report.Results {
		fmt.Printf("\n%s: %s\n", result.ID, result.Question)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecall.Value)
		if result.Faithfulness != nil {
			fmt.Printf("  Faithfulness: %.2f\n", result.Faithfulness.Value)
		}
		fmt.Printf("  Overall: %.2f\n", result.Overall)
		fmt.Printf("  Status: %s\n", result.Status)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Cases: %d\n", report.Total)
	fmt.Printf("Passed: %d\n", report.Passed)
	fmt.Printf("Failed: %d\n", report.Failed)
	fmt.Println("========================================")

	if err := report.Export(*outputPath); err != nil {
		log.Error("failed to export results", "error", err)
		return 1
	}
	fmt.Printf("Results exported to: %s\n", *outputPath)

	// Exit with error code if any cases failed
	if report.Failed > 0 {
		return 1
	}
	return 0
}
