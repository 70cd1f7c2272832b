package effectdetect

import "context"

// ModelClient invokes one external video-understanding model variant. The
// Detector treats the variant as a black box that accepts a clip plus an
// instruction and answers with raw text.
//
// Implementations must honor ctx cancellation and must not retain the request
// bytes after returning. Errors should be PipelineErrors so the pipeline can
// classify the failure; anything else is treated as the capability being
// unreachable.
type ModelClient interface {
	// AnalyzeVideo submits the clip together with the classification
	// instruction and returns the model's textual output verbatim.
	AnalyzeVideo(ctx context.Context, req ClassificationRequest) (string, error)

	// Variant returns the identifier reported as Result.ModelUsed when this
	// client produces the answer.
	Variant() string
}
