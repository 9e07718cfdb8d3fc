package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"go-script-evaluator/internal/config"
	"go-script-evaluator/internal/container"
	"go-script-evaluator/internal/factory"
	"go-script-evaluator/internal/logger"
	"go-script-evaluator/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	studentPath  string
	keyPath      string
	syllabusPath string
	ocrEngine    string
	pagesDir     string
	fastMode     bool
	interactive  bool
	jsonOutput   bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Grade a student script page by page and print the scorecard",
	RunE:  runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&studentPath, "student", "", "Student script (PDF or image, path or URL)")
	evaluateCmd.Flags().StringVar(&keyPath, "key", "", "Answer key (PDF or image, path or URL)")
	evaluateCmd.Flags().StringVar(&syllabusPath, "syllabus", "", "Question to module/Bloom mapping (.json or .yaml)")
	evaluateCmd.Flags().StringVar(&ocrEngine, "ocr", string(factory.TesseractTranscriber), "Transcriber: tesseract or none")
	evaluateCmd.Flags().StringVar(&pagesDir, "pages-dir", "", "Write each rendered student page as PNG into this directory")
	evaluateCmd.Flags().BoolVar(&fastMode, "fast", false, "Presentation metrics only; no answer key needed")
	evaluateCmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each page; enter q to stop")
	evaluateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full report as JSON")
	_ = evaluateCmd.MarkFlagRequired("student")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	// stdout carries the report
	logger.SetOutput(cmd.ErrOrStderr())
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger.Configure(level, "text")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.AllowLocalDocuments = true
	cfg.FastMode = cfg.FastMode || fastMode
	if syllabusPath != "" {
		cfg.SyllabusPath = syllabusPath
	}
	if !cfg.FastMode && keyPath == "" {
		return fmt.Errorf("--key is required unless --fast is set")
	}

	c, err := container.NewContainerWithOptions(cfg, container.Options{
		Transcriber: factory.TranscriberType(ocrEngine),
		SyncEvents:  true,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req := service.EvaluationRequest{
		StudentSource: studentPath,
		KeySource:     keyPath,
		FastMode:      cfg.FastMode,
	}
	if interactive || pagesDir != "" {
		req.Presenter = newConsolePresenter(cmd.InOrStdin(), cmd.ErrOrStderr(), interactive, pagesDir)
	}

	report, err := c.EvaluationService().Evaluate(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(out, report)
}
