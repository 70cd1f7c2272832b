package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// configPath is the optional YAML config file, shared by every subcommand.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "effectdetect",
	Short: "Detect video editing effects in short clips",
	Long: "Effectdetect classifies the editing effect in short video clips against\na fixed taxonomy using external video-understanding model variants.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an optional YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.Version = version
}

func main() {
	// A local .env supplies GEMINI_API_KEY during development; missing is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
