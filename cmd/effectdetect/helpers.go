package main

import (
	"fmt"
	"log/slog"

	"github.com/effectlens/effectdetect"
	"github.com/effectlens/effectdetect/adapters"
	"github.com/effectlens/effectdetect/internal/config"
	"github.com/effectlens/effectdetect/internal/logging"
)

// loadConfig loads the service configuration and fails fast when the provider
// credential is missing. Commands that can run keyless (doctor) call
// config.Load directly instead.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDetector wires the configured model variants into a Detector.
func newDetector(cfg *config.Config, logger *slog.Logger) (*effectdetect.Detector, error) {
	clientLogger := logging.WithComponent(logger, "gemini")

	primary, err := adapters.NewGeminiVideoAdapter(&cfg.APIKey, cfg.PrimaryModel, cfg.ActivationWait, clientLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary variant adapter: %w", err)
	}

	var secondary effectdetect.ModelClient
	if cfg.SecondaryModel != "" {
		sec, err := adapters.NewGeminiVideoAdapter(&cfg.APIKey, cfg.SecondaryModel, cfg.ActivationWait, clientLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create secondary variant adapter: %w", err)
		}
		secondary = sec
	}

	return effectdetect.New(effectdetect.Config{
		Primary:             primary,
		Secondary:           secondary,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		AllowedMediaTypes:   cfg.AllowedMediaTypes,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		CallTimeout:         cfg.CallTimeout,
		Logger:              logging.WithComponent(logger, "detector"),
	})
}
