package main

import (
	"context"
	"fmt"

	"oneonone/agenda-service/internal/agenda"
	"oneonone/agenda-service/internal/config"
	"oneonone/agenda-service/internal/logging"
	"oneonone/agenda-service/internal/pdf"
	"oneonone/agenda-service/internal/store"
	"oneonone/agenda-service/internal/store/file"
	"oneonone/agenda-service/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

func newGenerator(cfg config.Config, log logging.Logger) *agenda.AzureClient {
	return agenda.NewAzureClient(agenda.Config{
		Endpoint:    cfg.AI.Endpoint,
		APIKey:      cfg.AI.APIKey,
		Deployment:  cfg.AI.Deployment,
		APIVersion:  cfg.AI.APIVersion,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
		MaxRetries:  cfg.AI.MaxRetries,
	}, log.With("component", "agenda"))
}

// newRenderer resolves the font once and reports a fallback at startup.
func newRenderer(ctx context.Context, cfg config.Config, log logging.Logger) *pdf.Renderer {
	font, rejected := pdf.ResolveFont(cfg.FontPaths)
	if font.Fallback() {
		reasons := make([]string, 0, len(rejected))
		for _, err := range rejected {
			reasons = append(reasons, err.Error())
		}
		log.Warn(ctx, "no unicode font found, falling back to Helvetica; non-Latin text may not render", "rejected", reasons)
	} else {
		log.Info(ctx, "pdf font registered", "path", font.Path)
	}
	return pdf.NewRenderer(font, pdf.Options{})
}

// newUserStore picks the postgres store when DB_DSN is set and the
// credential file otherwise. The returned func releases resources.
func newUserStore(ctx context.Context, cfg config.Config, log logging.Logger) (store.UserStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info(ctx, "using credential file", "path", cfg.CredentialsFile)
		return file.NewStore(cfg.CredentialsFile, log.With("component", "credentials")), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}
	log.Info(ctx, "using postgres user store")
	return postgres.NewStore(pool), pool.Close, nil
}
