package effectdetect

import (
	"errors"
	"fmt"
)

// FailureKind tags each distinct way a classification can fail. Callers branch
// on the kind rather than on error strings.
type FailureKind string

const (
	// FailInvalidInput means the upload was rejected before any external call.
	FailInvalidInput FailureKind = "invalid_input"
	// FailUnreachable means the external capability could not be contacted.
	FailUnreachable FailureKind = "unreachable"
	// FailTimeout means a model attempt exceeded its time budget.
	FailTimeout FailureKind = "timeout"
	// FailRateLimited means the provider refused the call due to quota.
	FailRateLimited FailureKind = "rate_limited"
	// FailAuthError means the credential was missing or rejected.
	FailAuthError FailureKind = "auth_error"
	// FailServiceError means the provider answered with an error.
	FailServiceError FailureKind = "service_error"
	// FailMalformedOutput means the model answered but its output could not be
	// normalized into a result.
	FailMalformedOutput FailureKind = "malformed_output"
)

// PipelineError is the error type returned by Detector.Classify whenever a
// stage fails. Exactly one of Result or PipelineError is produced per request.
type PipelineError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind carried by err. The second return is false
// when err is not a pipeline failure.
func KindOf(err error) (FailureKind, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a pipeline failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func newFailure(kind FailureKind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapFailure(kind FailureKind, err error, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
