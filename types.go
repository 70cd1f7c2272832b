package effectdetect

// Result is the immutable classification produced for one accepted clip.
// Effect is always a taxonomy member, Confidence is always within [0, 1], and
// Description is never empty.
type Result struct {
	Effect      EffectLabel `json:"effect"`
	Confidence  float64     `json:"confidence"`
	Description string      `json:"description"`
	ModelUsed   string      `json:"model_used"`
}

// Metrics contains counters describing classification activity since the
// Detector was constructed.
type Metrics struct {
	// TotalRequests is the number of Classify calls observed.
	TotalRequests int

	// Failures is the number of Classify calls that returned a PipelineError.
	Failures int

	// LowConfidenceFallbacks counts results forced to the fallback label
	// because the reported confidence fell below the threshold.
	LowConfidenceFallbacks int

	// UnknownLabelCoercions counts results whose reported label was not a
	// taxonomy member and was coerced to the fallback label.
	UnknownLabelCoercions int

	// SecondaryVariantAnswers counts results produced by the secondary model
	// variant after the primary was unavailable.
	SecondaryVariantAnswers int
}

// assemble composes the final Result from a normalized record and the variant
// that produced it. Nothing downstream mutates the returned value.
func assemble(rec record, variant string) *Result {
	return &Result{
		Effect:      rec.effect,
		Confidence:  rec.confidence,
		Description: rec.description,
		ModelUsed:   variant,
	}
}
