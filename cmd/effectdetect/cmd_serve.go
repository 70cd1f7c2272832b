package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/effectlens/effectdetect/internal/config"
	"github.com/effectlens/effectdetect/internal/httpapi"
	"github.com/effectlens/effectdetect/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP classification service",
	Long: `Starts the HTTP API: POST /classify accepts a multipart clip upload and
answers with the detected editing effect; GET /health, /labels and /status
report readiness, the label taxonomy and runtime counters.`,
	RunE: runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	startTime := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting effectdetect service",
		"version", config.Version,
		"port", cfg.Port,
		"primary_model", cfg.PrimaryModel,
		"secondary_model", cfg.SecondaryModel)

	detector, err := newDetector(cfg, logger)
	if err != nil {
		return err
	}

	apiServer := httpapi.NewServer(httpapi.ServerConfig{
		Port:           cfg.Port,
		Detector:       detector,
		Logger:         logging.WithComponent(logger, "api"),
		StartTime:      startTime,
		Version:        config.Version,
		CORSOrigins:    cfg.CORSOrigins,
		MaxConcurrent:  cfg.MaxConcurrent,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
