package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/study-agent/internal/config"
	"github.com/jonathan/study-agent/internal/extract"
	"github.com/jonathan/study-agent/internal/llm"
	"github.com/jonathan/study-agent/internal/logging"
	"github.com/jonathan/study-agent/internal/observability"
	"github.com/jonathan/study-agent/internal/prompts"
	"github.com/jonathan/study-agent/internal/study"
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Produce every study artifact for a local document",
	Long:  "Extracts the text of a PDF, DOCX, PPTX or TXT file and prints its summary, quiz, keywords and flashcards as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

var (
	processMode       string
	processFormat     string
	processOutputFile string
	processVerbose    bool
)

func init() {
	processCmd.Flags().StringVarP(&processMode, "mode", "m", study.DefaultMode, "Summary mode (short, detailed, bullet)")
	processCmd.Flags().StringVarP(&processFormat, "format", "f", "", "Document format (pdf, docx, pptx, txt); inferred from the extension when empty")
	processCmd.Flags().StringVarP(&processOutputFile, "out", "o", "", "Write the JSON result to this file instead of stdout")
	processCmd.Flags().BoolVarP(&processVerbose, "verbose", "v", false, "Print the extracted document and each artifact to stderr")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	path := args[0]

	format, err := resolveFormat(path, processFormat)
	if err != nil {
		return err
	}

	cfg, err := config.LoadStudy(configPath)
	if err != nil {
		return err
	}
	if err := prompts.Check(); err != nil {
		return fmt.Errorf("invalid prompt templates: %w", err)
	}
	log := logging.NewWithWriter(cmd.ErrOrStderr(), level(cfg.LogLevel))

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	text, err := extract.Extract(data, format)
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", format.Label(), err)
	}

	var printer *observability.Printer
	if processVerbose {
		printer = observability.NewPrinter(cmd.ErrOrStderr())
		printer.PrintDocument(filepath.Base(path), format, data, text)
	}

	ctx := cmd.Context()
	remote, err := llm.NewClient(ctx, cfg.LLM(), log)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = remote.Close() }()

	svc := study.NewService(remote, llm.NewLocalSummarizer(ctx, cfg.LocalModel(), log), cfg.Gemini.Model, log)
	artifacts, err := svc.Process(ctx, text, processMode)
	if err != nil {
		return err
	}
	if printer != nil {
		printer.PrintArtifacts(artifacts)
	}

	out, err := json.MarshalIndent(artifacts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	out = append(out, '\n')

	if processOutputFile == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	if dir := filepath.Dir(processOutputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(processOutputFile, out, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func resolveFormat(path, explicit string) (extract.Format, error) {
	if explicit != "" {
		return extract.ParseFormat(explicit)
	}
	return extract.FormatFromFilename(path)
}
