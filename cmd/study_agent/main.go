// Package main provides the entry point for the study agent API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "study_agent",
	Short:        "Study Agent HTTP API Server",
	Long:         "Study Agent turns text and uploaded documents (PDF, DOCX, PPTX, TXT) into summaries, quizzes, keyword lists and flashcards using Gemini, with a local summarization fallback.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file overlaying the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// level resolves the log level flag against the configured one.
func level(configured string) string {
	if logLevel != "" {
		return logLevel
	}
	return configured
}
