package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/effectlens/effectdetect/clients/gemini"
	"github.com/effectlens/effectdetect/internal/config"
	"github.com/effectlens/effectdetect/internal/logging"
)

var doctorFlags struct {
	timeout time.Duration
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and provider access",
	Long: `Doctor verifies the service can run: the configuration parses, the
provider credential is present, and each configured model variant answers a
metadata probe. Exits non-zero when any check fails.`,
	RunE: runDoctor,
}

func init() {
	f := doctorCmd.Flags()
	f.DurationVar(&doctorFlags.timeout, "timeout", 15*time.Second, "Per-probe timeout")
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(out, "[fail] config: %v\n", err)
		return fmt.Errorf("configuration is unusable")
	}
	fmt.Fprintf(out, "[ ok ] config: port=%d primary=%s secondary=%s\n",
		cfg.Port, cfg.PrimaryModel, orNone(cfg.SecondaryModel))

	failed := 0

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "[fail] credential: %v\n", err)
		failed++
	} else {
		fmt.Fprintf(out, "[ ok ] credential: %s\n", logging.SanitizeKey(cfg.APIKey))
	}

	// Variant probes need the credential; skip them when it is absent.
	if cfg.APIKey != "" {
		client := gemini.NewClient(cfg.APIKey)
		variants := []string{cfg.PrimaryModel}
		if cfg.SecondaryModel != "" {
			variants = append(variants, cfg.SecondaryModel)
		}

		for _, variant := range variants {
			ctx, cancel := context.WithTimeout(cmd.Context(), doctorFlags.timeout)
			model, err := client.GetModel(ctx, variant)
			cancel()
			if err != nil {
				fmt.Fprintf(out, "[fail] variant %s: %v\n", variant, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "[ ok ] variant %s: %s\n", variant, orNone(model.DisplayName))
		}
	}

	if failed > 0 {
		return fmt.Errorf("doctor: %d check(s) failed", failed)
	}

	fmt.Fprintln(out, "all checks passed")
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
