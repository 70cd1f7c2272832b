package effectdetect

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// gateway sequences model variant attempts: one bounded attempt against the
// primary, then at most one against the secondary when the primary variant
// itself was unavailable. It never retries the same variant.
type gateway struct {
	primary     ModelClient
	secondary   ModelClient
	callTimeout time.Duration
	logger      *slog.Logger
}

// invoke returns the raw model output and the variant that produced it.
func (g *gateway) invoke(ctx context.Context, req ClassificationRequest) (string, string, error) {
	raw, err := g.attempt(ctx, g.primary, req)
	if err == nil {
		return raw, g.primary.Variant(), nil
	}

	if g.secondary == nil || !variantUnavailable(err) {
		return "", "", err
	}

	g.logger.Warn("primary model variant unavailable, trying secondary",
		"primary", g.primary.Variant(),
		"secondary", g.secondary.Variant(),
		"error", err)

	raw, err = g.attempt(ctx, g.secondary, req)
	if err != nil {
		return "", "", err
	}
	return raw, g.secondary.Variant(), nil
}

// attempt runs a single variant call under the per-attempt time budget and
// folds unclassified errors into the failure taxonomy.
func (g *gateway) attempt(parent context.Context, client ModelClient, req ClassificationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(parent, g.callTimeout)
	defer cancel()

	raw, err := client.AnalyzeVideo(ctx, req)
	if err == nil {
		return raw, nil
	}

	switch {
	case errors.Is(err, context.Canceled):
		// The caller gave up; there is nobody left to answer.
		return "", err
	case errors.Is(err, context.DeadlineExceeded):
		return "", wrapFailure(FailTimeout, err,
			"model variant %s did not answer within %s", client.Variant(), g.callTimeout)
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		return "", err
	}

	return "", wrapFailure(FailUnreachable, err,
		"model variant %s could not be reached", client.Variant())
}

// unavailabler is implemented by provider errors that can say whether the
// failure was the variant being unavailable, as opposed to an answer that
// would repeat identically on another variant.
type unavailabler interface {
	VariantUnavailable() bool
}

// variantUnavailable decides whether a failed primary attempt qualifies for
// the single secondary attempt. Timeouts and unreachable transports always
// qualify; provider answers qualify only when the provider says the variant
// itself was unavailable. Rate limits, credential rejections, and content
// failures never qualify.
func variantUnavailable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}

	switch kind {
	case FailTimeout, FailUnreachable:
		return true
	case FailServiceError:
		var u unavailabler
		return errors.As(err, &u) && u.VariantUnavailable()
	default:
		return false
	}
}
