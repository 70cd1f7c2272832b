// Package adapters bridges the detector's model-client boundary to concrete
// provider clients.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/effectlens/effectdetect"
	"github.com/effectlens/effectdetect/clients/gemini"
)

// cleanupTimeout bounds the provider-side file deletion that still has to run
// once the request context is already done.
const cleanupTimeout = 10 * time.Second

// videoFileAPI is the slice of the Gemini client the adapter uses.
type videoFileAPI interface {
	UploadFile(ctx context.Context, data []byte, mimeType string) (*gemini.File, error)
	WaitForFileActive(ctx context.Context, name string) (*gemini.File, error)
	GenerateContent(ctx context.Context, model string, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
	DeleteFile(ctx context.Context, name string) error
}

// GeminiVideoAdapter adapts the Gemini client to the ModelClient interface
// for one model variant.
type GeminiVideoAdapter struct {
	client  videoFileAPI
	variant string
	logger  *slog.Logger
}

// NewGeminiVideoAdapter creates an adapter that answers with the given model
// variant. When apiKey is nil the GEMINI_API_KEY environment variable is
// used. activationWait caps how long an uploaded clip may stay in provider
// processing before the attempt is abandoned; 0 uses the client default.
func NewGeminiVideoAdapter(apiKey *string, variant string, activationWait time.Duration, logger *slog.Logger) (*GeminiVideoAdapter, error) {
	key, err := loadEnvVar(apiKey, "GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}

	if variant == "" {
		return nil, fmt.Errorf("a model variant identifier is required")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client := gemini.NewClient(*key)
	if activationWait > 0 {
		client.ActivationWait = activationWait
	}

	return &GeminiVideoAdapter{
		client:  client,
		variant: variant,
		logger:  logger,
	}, nil
}

// Variant implements ModelClient.
func (a *GeminiVideoAdapter) Variant() string {
	return a.variant
}

// AnalyzeVideo implements ModelClient. It uploads the clip to the provider's
// file store, waits for the file to become active, asks the variant to
// classify it, and deletes the provider-side file on every exit path. The
// deletion runs even when ctx is already cancelled.
func (a *GeminiVideoAdapter) AnalyzeVideo(ctx context.Context, req effectdetect.ClassificationRequest) (string, error) {
	uploaded, err := a.client.UploadFile(ctx, req.Video, req.MediaType)
	if err != nil {
		return "", a.classifyErr(err, "failed to upload clip")
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if derr := a.client.DeleteFile(cleanupCtx, uploaded.Name); derr != nil {
			a.logger.Warn("failed to delete provider-side file",
				"file", uploaded.Name,
				"variant", a.variant,
				"error", derr)
		}
	}()

	active, err := a.client.WaitForFileActive(ctx, uploaded.Name)
	if err != nil {
		return "", a.classifyErr(err, "clip never became ready")
	}

	resp, err := a.client.GenerateContent(ctx, a.variant, gemini.GenerateContentRequest{
		Contents: []gemini.Content{{
			Parts: []gemini.Part{
				{Text: req.Instruction},
				{FileData: &gemini.FileData{MimeType: req.MediaType, FileURI: active.URI}},
			},
		}},
	})
	if err != nil {
		return "", a.classifyErr(err, "model call failed")
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &effectdetect.PipelineError{
			Kind:    effectdetect.FailServiceError,
			Message: fmt.Sprintf("model %s refused the clip: %s", a.variant, resp.PromptFeedback.BlockReason),
		}
	}

	text := resp.Text()
	if text == "" {
		return "", &effectdetect.PipelineError{
			Kind:    effectdetect.FailServiceError,
			Message: fmt.Sprintf("model %s returned no answer for the clip", a.variant),
		}
	}

	return text, nil
}

// classifyErr folds provider errors into the pipeline failure taxonomy.
// Context errors pass through untouched so the gateway can attribute them to
// its own time budget.
func (a *GeminiVideoAdapter) classifyErr(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	kind := effectdetect.FailUnreachable
	switch {
	case errors.Is(err, gemini.ErrFileNotActive):
		kind = effectdetect.FailTimeout
	case errors.Is(err, gemini.ErrFileProcessingFailed):
		kind = effectdetect.FailServiceError
	default:
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				kind = effectdetect.FailAuthError
			case http.StatusTooManyRequests:
				kind = effectdetect.FailRateLimited
			default:
				kind = effectdetect.FailServiceError
			}
		}
	}

	return &effectdetect.PipelineError{
		Kind:    kind,
		Message: fmt.Sprintf("%s (%s)", msg, a.variant),
		Err:     err,
	}
}

// loadEnvVar loads an environment variable into a pointer if no value is provided
func loadEnvVar(target *string, envKey string) (*string, error) {
	if target == nil {
		envVar := os.Getenv(envKey)
		if envVar == "" {
			return nil, fmt.Errorf("%s environment variable not set and no value provided", envKey)
		}
		return &envVar, nil
	}
	return target, nil
}
