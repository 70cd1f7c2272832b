package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/effectlens/effectdetect"
	"github.com/effectlens/effectdetect/internal/logging"
)

var classifyFlags struct {
	verbose bool
}

var classifyCmd = &cobra.Command{
	Use:   "classify <clip>",
	Short: "Classify the editing effect in a local video clip",
	Long: `Classify runs the full pipeline on one local clip and prints the result
as JSON: the detected effect label, confidence, a one-sentence description
and the model variant that answered.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.BoolVar(&classifyFlags.verbose, "verbose", false, "Log pipeline diagnostics alongside the result")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The result goes to stdout, so pipeline logs stay off unless asked for.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if classifyFlags.verbose {
		logger = logging.NewLogger("debug")
	}

	detector, err := newDetector(cfg, logger)
	if err != nil {
		return err
	}

	path := args[0]
	clip, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open clip: %w", err)
	}
	defer clip.Close()

	info, err := clip.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat clip: %w", err)
	}

	result, err := detector.Classify(cmd.Context(), clip, effectdetect.MediaTypeForFilename(path), info.Size())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
