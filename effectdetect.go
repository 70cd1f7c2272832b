package effectdetect

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Detector runs the classification pipeline for uploaded video clips: it
// validates the upload, builds the model request, invokes a model variant
// through the gateway, normalizes the raw answer, and assembles the final
// Result. A single Detector is safe for concurrent use; every Classify call
// is an independent unit of work.
type Detector struct {
	cfg     Config
	allowed map[string]struct{}
	gw      *gateway

	// Metrics tracking
	totalRequests    int
	failures         int
	lowConfidence    int
	unknownCoercions int
	secondaryAnswers int
	metricsLock      sync.RWMutex
}

// New creates a Detector with the given configuration.
func New(cfg Config) (*Detector, error) {
	cfg.applyDefaults()

	if cfg.Primary == nil {
		return nil, fmt.Errorf("config: a primary model client is required")
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("config: confidence threshold %v is outside [0, 1]", cfg.ConfidenceThreshold)
	}

	if cfg.MaxUploadBytes < 0 {
		return nil, fmt.Errorf("config: max upload bytes must be positive, got %d", cfg.MaxUploadBytes)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedMediaTypes))
	for _, mt := range cfg.AllowedMediaTypes {
		allowed[canonicalMediaType(mt)] = struct{}{}
	}

	return &Detector{
		cfg:     cfg,
		allowed: allowed,
		gw: &gateway{
			primary:     cfg.Primary,
			secondary:   cfg.Secondary,
			callTimeout: cfg.CallTimeout,
			logger:      cfg.Logger,
		},
	}, nil
}

// Classify runs the full pipeline for one uploaded clip and returns the
// classification result. Every failure is a *PipelineError whose Kind says
// which stage rejected the request; no stage after a failure runs, and
// rejected uploads never reach the external model.
//
// The clip bytes are held only for the duration of the call. Cancelling ctx
// aborts the in-flight model call; provider-side artifacts are still released.
func (d *Detector) Classify(ctx context.Context, video io.Reader, mediaType string, declaredSize int64) (*Result, error) {
	d.recordRequest()

	p, err := d.validate(video, mediaType, declaredSize)
	if err != nil {
		d.recordFailure()
		return nil, err
	}

	req := buildRequest(p)

	raw, variant, err := d.gw.invoke(ctx, req)
	if err != nil {
		d.recordFailure()
		return nil, err
	}

	rec, err := d.normalize(raw)
	if err != nil {
		d.recordFailure()
		d.cfg.Logger.Error("model output could not be normalized",
			"variant", variant,
			"error", err)
		return nil, err
	}

	d.recordOutcome(rec, variant)

	d.cfg.Logger.Info("clip classified",
		"effect", rec.effect,
		"confidence", rec.confidence,
		"model", variant)

	return assemble(rec, variant), nil
}

// Metrics returns current classification metrics.
func (d *Detector) Metrics() Metrics {
	d.metricsLock.RLock()
	defer d.metricsLock.RUnlock()

	return Metrics{
		TotalRequests:           d.totalRequests,
		Failures:                d.failures,
		LowConfidenceFallbacks:  d.lowConfidence,
		UnknownLabelCoercions:   d.unknownCoercions,
		SecondaryVariantAnswers: d.secondaryAnswers,
	}
}

// recordRequest records a Classify invocation for metrics.
func (d *Detector) recordRequest() {
	d.metricsLock.Lock()
	defer d.metricsLock.Unlock()
	d.totalRequests++
}

// recordFailure records a failed Classify invocation for metrics.
func (d *Detector) recordFailure() {
	d.metricsLock.Lock()
	defer d.metricsLock.Unlock()
	d.failures++
}

// recordOutcome records what normalization had to repair and which variant
// answered.
func (d *Detector) recordOutcome(rec record, variant string) {
	d.metricsLock.Lock()
	defer d.metricsLock.Unlock()

	if rec.lowConfidence {
		d.lowConfidence++
	}
	if rec.coercedLabel {
		d.unknownCoercions++
	}
	if d.cfg.Secondary != nil && variant == d.cfg.Secondary.Variant() {
		d.secondaryAnswers++
	}
}
