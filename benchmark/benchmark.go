// Package benchmark evaluates classification accuracy over a labeled clip
// dataset. Clips run through the full detection pipeline; per-clip outcomes
// and aggregate metrics are reported for offline inspection.
package benchmark

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/effectlens/effectdetect"
)

// DatasetItem is one labeled clip: a path on disk and the effect a human
// annotator expects the pipeline to report.
type DatasetItem struct {
	Path          string
	ExpectedLabel string
}

// Outcome is the per-clip evaluation record.
type Outcome struct {
	Path       string  `json:"path"`
	Expected   string  `json:"expected"`
	Actual     string  `json:"actual,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	ModelUsed  string  `json:"model_used,omitempty"`
	DurationMS int64   `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// LabelTally counts how a single expected label fared.
type LabelTally struct {
	Expected int `json:"expected"`
	Correct  int `json:"correct"`
}

// Metrics aggregates one benchmark run.
type Metrics struct {
	TotalClips      int                   `json:"total_clips"`
	Correct         int                   `json:"correct"`
	Failed          int                   `json:"failed"`
	Accuracy        float64               `json:"accuracy"`
	TotalDurationMS int64                 `json:"total_duration_ms"`
	MeanLatencyMS   int64                 `json:"mean_latency_ms"`
	PerLabel        map[string]LabelTally `json:"per_label"`
}

// Run classifies every dataset item with up to parallel workers and computes
// aggregate metrics. Per-clip failures are captured in the outcome rather
// than aborting the run; outcomes are ordered like items.
func Run(ctx context.Context, detector *effectdetect.Detector, items []DatasetItem, parallel int) ([]Outcome, Metrics, error) {
	if parallel < 1 {
		parallel = 1
	}

	outcomes := make([]Outcome, len(items))
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, item := range items {
		i, item := i, item // per-iteration copies; required for correct capture before go1.22 semantics
		g.Go(func() error {
			outcomes[i] = classifyClip(gctx, detector, item)
			return nil
		})
	}
	_ = g.Wait() // errors captured per outcome

	return outcomes, computeMetrics(outcomes, time.Since(startTime)), ctx.Err()
}

// classifyClip runs one dataset item through the pipeline and records what
// happened, including failures.
func classifyClip(ctx context.Context, detector *effectdetect.Detector, item DatasetItem) Outcome {
	outcome := Outcome{Path: item.Path, Expected: item.ExpectedLabel}
	clipStart := time.Now()

	file, err := os.Open(item.Path)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	mediaType := effectdetect.MediaTypeForFilename(item.Path)
	result, err := detector.Classify(ctx, file, mediaType, info.Size())
	outcome.DurationMS = time.Since(clipStart).Milliseconds()
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Actual = result.Effect.String()
	outcome.Confidence = result.Confidence
	outcome.ModelUsed = result.ModelUsed
	return outcome
}

func computeMetrics(outcomes []Outcome, total time.Duration) Metrics {
	metrics := Metrics{
		TotalClips:      len(outcomes),
		TotalDurationMS: total.Milliseconds(),
		PerLabel:        make(map[string]LabelTally),
	}

	var latencySum int64
	for _, o := range outcomes {
		latencySum += o.DurationMS

		if o.Error != "" {
			metrics.Failed++
			continue
		}

		tally := metrics.PerLabel[o.Expected]
		tally.Expected++
		if o.Actual == o.Expected {
			tally.Correct++
			metrics.Correct++
		}
		metrics.PerLabel[o.Expected] = tally
	}

	if classified := metrics.TotalClips - metrics.Failed; classified > 0 {
		metrics.Accuracy = float64(metrics.Correct) / float64(classified)
	}
	if metrics.TotalClips > 0 {
		metrics.MeanLatencyMS = latencySum / int64(metrics.TotalClips)
	}

	return metrics
}
