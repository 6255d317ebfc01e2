package main

import (
	"context"
	"fmt"
	"os"

	"oneonone/agenda-service/internal/agenda"
	"oneonone/agenda-service/internal/config"
	"oneonone/agenda-service/internal/logging"
	"oneonone/agenda-service/internal/models"
	"oneonone/agenda-service/internal/pdf"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func renderCmd() *cobra.Command {
	var (
		input  string
		output string
		skipAI bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Generate an agenda PDF from a YAML intake file",
		Long: `Generate an agenda PDF without the web UI.

Example:
  agenda-service render --input intake.yaml --out 1on1_agenda.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logging.New(os.Stderr, cfg.LogLevel, "text")
			return runRender(cmd.Context(), cfg, log, input, output, skipAI)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "YAML file with the intake fields")
	cmd.Flags().StringVarP(&output, "out", "o", pdf.Filename, "where to write the PDF")
	cmd.Flags().BoolVar(&skipAI, "skip-ai", false, "do not call the AI endpoint")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runRender(ctx context.Context, cfg config.Config, log logging.Logger, input, output string, skipAI bool) error {
	intake, err := readIntake(input)
	if err != nil {
		return err
	}
	if missing := intake.Missing(); len(missing) > 0 {
		return fmt.Errorf("%s: missing required fields %v", input, missing)
	}

	result := agenda.Failure(agenda.ErrNotConfigured)
	if !skipAI {
		result = newGenerator(cfg, log).Generate(ctx, intake)
	}
	if result.Failed() {
		log.Warn(ctx, "agenda not generated", "reason", result.Reason(), "error", result.Err)
	}

	document, err := newRenderer(ctx, cfg, log).Render(pdf.Document{Intake: intake, Result: result})
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, document, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	log.Info(ctx, "agenda written", "path", output, "bytes", len(document))
	return nil
}

func readIntake(path string) (models.Intake, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Intake{}, fmt.Errorf("read intake: %w", err)
	}
	var intake models.Intake
	if err := yaml.Unmarshal(raw, &intake); err != nil {
		return models.Intake{}, fmt.Errorf("parse intake %s: %w", path, err)
	}
	return intake.Normalize(), nil
}
