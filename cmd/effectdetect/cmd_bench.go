package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/effectlens/effectdetect/benchmark"
	"github.com/effectlens/effectdetect/internal/logging"
)

var benchFlags struct {
	dataset  string
	limit    int
	parallel int
	outDir   string
	verbose  bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure classification accuracy over a labeled clip dataset",
	Long: `Bench classifies every clip in a CSV dataset (clip path, expected label)
and reports accuracy, per-label tallies and latency. Metrics and per-clip
outcomes are written as timestamped JSON files.`,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVar(&benchFlags.dataset, "dataset", "", "Path to the labeled dataset CSV")
	f.IntVar(&benchFlags.limit, "limit", 0, "Max clips to evaluate (0 = dataset cap)")
	f.IntVar(&benchFlags.parallel, "parallel", 4, "Number of clips classified concurrently")
	f.StringVar(&benchFlags.outDir, "out", ".", "Directory for the metrics and results JSON files")
	f.BoolVar(&benchFlags.verbose, "verbose", false, "Log pipeline diagnostics during the run")
	_ = benchCmd.MarkFlagRequired("dataset")
}

func runBench(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if benchFlags.verbose {
		logger = logging.NewLogger("debug")
	}

	detector, err := newDetector(cfg, logger)
	if err != nil {
		return err
	}

	items, err := benchmark.LoadDataset(benchFlags.dataset, benchFlags.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Evaluating %d clips (parallel=%d, primary=%s)\n",
		len(items), benchFlags.parallel, cfg.PrimaryModel)

	outcomes, metrics, err := benchmark.Run(cmd.Context(), detector, items, benchFlags.parallel)
	if err != nil {
		return fmt.Errorf("benchmark aborted: %w", err)
	}

	fmt.Fprintf(out, "\nAccuracy:     %.1f%% (%d correct, %d failed, %d total)\n",
		metrics.Accuracy*100, metrics.Correct, metrics.Failed, metrics.TotalClips)
	fmt.Fprintf(out, "Mean latency: %d ms\n", metrics.MeanLatencyMS)

	labels := make([]string, 0, len(metrics.PerLabel))
	for label := range metrics.PerLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		tally := metrics.PerLabel[label]
		fmt.Fprintf(out, "  %-20s %d/%d\n", label, tally.Correct, tally.Expected)
	}

	metricsPath, err := benchmark.SaveMetricsToFile(metrics, benchFlags.outDir)
	if err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}
	resultsPath, err := benchmark.SaveResultsToFile(outcomes, benchFlags.outDir)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	fmt.Fprintf(out, "\nMetrics: %s\nResults: %s\n", metricsPath, resultsPath)
	return nil
}
