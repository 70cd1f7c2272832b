// Package config loads the service configuration for the effect detector.
// Defaults are overridden by an optional YAML file, then by environment
// variables; the API credential is only ever read from the environment. The
// resulting Config is immutable after Load and safe to share across
// concurrent requests.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort           = 8000
	DefaultLogLevel       = "info"
	DefaultPrimaryModel   = "gemini-2.0-flash-exp"
	DefaultSecondaryModel = "gemini-1.5-pro"
	DefaultMaxUploadMB    = 50
	DefaultThreshold      = 0.5
	DefaultCallTimeout    = 60 * time.Second
	DefaultActivationWait = 120 * time.Second
	DefaultMaxConcurrent  = 8

	// Environment variable names. The credential deliberately has no
	// EFFECTDETECT_ prefix; it is the provider's conventional name.
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvPort           = "EFFECTDETECT_PORT"
	EnvLogLevel       = "EFFECTDETECT_LOG_LEVEL"
	EnvPrimaryModel   = "EFFECTDETECT_PRIMARY_MODEL"
	EnvSecondaryModel = "EFFECTDETECT_SECONDARY_MODEL"
	EnvMaxUploadMB    = "EFFECTDETECT_MAX_UPLOAD_MB"
	EnvThreshold      = "EFFECTDETECT_CONFIDENCE_THRESHOLD"
	EnvCallTimeout    = "EFFECTDETECT_CALL_TIMEOUT"
	EnvActivationWait = "EFFECTDETECT_ACTIVATION_WAIT"
	EnvCORSOrigins    = "EFFECTDETECT_CORS_ORIGINS"
	EnvMaxConcurrent  = "EFFECTDETECT_MAX_CONCURRENT"
	EnvMediaTypes     = "EFFECTDETECT_MEDIA_TYPES"
)

// Config is the process-wide configuration, constructed once at startup and
// passed explicitly to the components that need it.
type Config struct {
	// APIKey authenticates against the external model provider.
	APIKey string

	// PrimaryModel is the variant tried first for every clip.
	PrimaryModel string

	// SecondaryModel answers when the primary variant is unavailable.
	// Empty disables the fallback.
	SecondaryModel string

	// MaxUploadBytes is the upload size ceiling.
	MaxUploadBytes int64

	// ConfidenceThreshold is the confidence below which results fall back to
	// the unknown label.
	ConfidenceThreshold float64

	// CallTimeout bounds each model variant attempt.
	CallTimeout time.Duration

	// ActivationWait caps how long an uploaded clip may stay in provider
	// processing.
	ActivationWait time.Duration

	// AllowedMediaTypes overrides the upload media type allow-list. Empty
	// keeps the detector default (mp4, mov, avi).
	AllowedMediaTypes []string

	// Port is the HTTP listen port.
	Port int

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// CORSOrigins lists the origins allowed to call the HTTP API from a
	// browser. A single "*" allows any origin.
	CORSOrigins []string

	// MaxConcurrent caps simultaneous in-flight classifications in the HTTP
	// layer. 0 means no ceiling.
	MaxConcurrent int
}

// fileConfig mirrors the optional YAML configuration file. Pointer fields
// distinguish "absent" from explicit zero values.
type fileConfig struct {
	Port                *int     `yaml:"port"`
	LogLevel            string   `yaml:"log_level"`
	PrimaryModel        string   `yaml:"primary_model"`
	SecondaryModel      string   `yaml:"secondary_model"`
	MaxUploadMB         *int64   `yaml:"max_upload_mb"`
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`
	CallTimeout         string   `yaml:"call_timeout"`
	ActivationWait      string   `yaml:"activation_wait"`
	AllowedMediaTypes   []string `yaml:"allowed_media_types"`
	CORSOrigins         []string `yaml:"cors_origins"`
	MaxConcurrent       *int     `yaml:"max_concurrent"`
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), and environment variables, in that order of
// precedence. It fails on unparseable or out-of-range values; credential
// presence is checked separately by Validate so diagnostic commands can still
// load a keyless configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{
		PrimaryModel:        DefaultPrimaryModel,
		SecondaryModel:      DefaultSecondaryModel,
		MaxUploadBytes:      DefaultMaxUploadMB << 20,
		ConfidenceThreshold: DefaultThreshold,
		CallTimeout:         DefaultCallTimeout,
		ActivationWait:      DefaultActivationWait,
		Port:                DefaultPort,
		LogLevel:            DefaultLogLevel,
		CORSOrigins:         []string{"*"},
		MaxConcurrent:       DefaultMaxConcurrent,
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.Port)
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("invalid confidence threshold %v: must be within [0, 1]", cfg.ConfidenceThreshold)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("invalid max upload size %d MB: must be positive", cfg.MaxUploadBytes>>20)
	}

	if cfg.PrimaryModel == "" {
		return nil, fmt.Errorf("a primary model variant is required")
	}

	return cfg, nil
}

// Validate checks that the configuration can actually reach the external
// provider. A missing credential is reported here so the process fails fast
// at startup instead of on the first classification.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s environment variable not set", EnvAPIKey)
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.PrimaryModel != "" {
		c.PrimaryModel = fc.PrimaryModel
	}
	if fc.SecondaryModel != "" {
		c.SecondaryModel = fc.SecondaryModel
	}
	if fc.MaxUploadMB != nil {
		c.MaxUploadBytes = *fc.MaxUploadMB << 20
	}
	if fc.ConfidenceThreshold != nil {
		c.ConfidenceThreshold = *fc.ConfidenceThreshold
	}
	if fc.CallTimeout != "" {
		d, err := time.ParseDuration(fc.CallTimeout)
		if err != nil {
			return fmt.Errorf("invalid call_timeout in %s: %w", path, err)
		}
		c.CallTimeout = d
	}
	if fc.ActivationWait != "" {
		d, err := time.ParseDuration(fc.ActivationWait)
		if err != nil {
			return fmt.Errorf("invalid activation_wait in %s: %w", path, err)
		}
		c.ActivationWait = d
	}
	if len(fc.AllowedMediaTypes) > 0 {
		c.AllowedMediaTypes = fc.AllowedMediaTypes
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
	if fc.MaxConcurrent != nil {
		c.MaxConcurrent = *fc.MaxConcurrent
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.APIKey = os.Getenv(EnvAPIKey)

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.LogLevel = ll
	}

	if m := os.Getenv(EnvPrimaryModel); m != "" {
		c.PrimaryModel = m
	}

	if m, ok := os.LookupEnv(EnvSecondaryModel); ok {
		// An explicitly empty value disables the fallback variant.
		c.SecondaryModel = m
	}

	if mb := os.Getenv(EnvMaxUploadMB); mb != "" {
		n, err := strconv.ParseInt(mb, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxUploadMB, err)
		}
		c.MaxUploadBytes = n << 20
	}

	if th := os.Getenv(EnvThreshold); th != "" {
		f, err := strconv.ParseFloat(th, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvThreshold, err)
		}
		c.ConfidenceThreshold = f
	}

	if ct := os.Getenv(EnvCallTimeout); ct != "" {
		d, err := time.ParseDuration(ct)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvCallTimeout, err)
		}
		c.CallTimeout = d
	}

	if aw := os.Getenv(EnvActivationWait); aw != "" {
		d, err := time.ParseDuration(aw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvActivationWait, err)
		}
		c.ActivationWait = d
	}

	if origins := os.Getenv(EnvCORSOrigins); origins != "" {
		c.CORSOrigins = splitList(origins)
	}

	if types := os.Getenv(EnvMediaTypes); types != "" {
		c.AllowedMediaTypes = splitList(types)
	}

	if mc := os.Getenv(EnvMaxConcurrent); mc != "" {
		n, err := strconv.Atoi(mc)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxConcurrent, err)
		}
		if n < 0 {
			return fmt.Errorf("invalid %s: must not be negative", EnvMaxConcurrent)
		}
		c.MaxConcurrent = n
	}

	return nil
}

// splitList splits a comma-separated environment value, trimming whitespace
// and dropping empty entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)
