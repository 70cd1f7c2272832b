package effectdetect

import (
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultMaxUploadBytes is the default upload size ceiling (50 MB).
	DefaultMaxUploadBytes = 50 << 20

	// DefaultConfidenceThreshold is the minimum confidence a reported label
	// needs to survive normalization.
	DefaultConfidenceThreshold = 0.5

	// DefaultCallTimeout bounds a single model variant attempt end to end,
	// including the provider-side media handling around it.
	DefaultCallTimeout = 60 * time.Second
)

// DefaultMediaTypes lists the upload media types accepted when Config leaves
// AllowedMediaTypes unset.
var DefaultMediaTypes = []string{"video/mp4", "video/quicktime", "video/x-msvideo"}

// Config holds configuration for the Detector.
type Config struct {
	// Primary performs the first classification attempt for every request.
	// Required.
	Primary ModelClient

	// Secondary answers when the primary variant is unavailable. If nil, an
	// unavailable primary fails the request.
	Secondary ModelClient

	// MaxUploadBytes is the upload size ceiling. If 0, uses DefaultMaxUploadBytes.
	MaxUploadBytes int64

	// AllowedMediaTypes is the upload media type allow-list. If empty, uses
	// DefaultMediaTypes.
	AllowedMediaTypes []string

	// ConfidenceThreshold is the confidence below which a result falls back to
	// the fallback label (0.0 to 1.0). If 0, uses DefaultConfidenceThreshold.
	ConfidenceThreshold float64

	// CallTimeout bounds each model variant attempt. If 0, uses DefaultCallTimeout.
	CallTimeout time.Duration

	// Logger receives pipeline diagnostics. If nil, logging is disabled.
	Logger *slog.Logger
}

// applyDefaults fills in default values for unset config fields.
func (c *Config) applyDefaults() {
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}

	if len(c.AllowedMediaTypes) == 0 {
		c.AllowedMediaTypes = DefaultMediaTypes
	}

	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}

	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultCallTimeout
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}
