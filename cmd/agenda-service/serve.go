package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oneonone/agenda-service/internal/config"
	"oneonone/agenda-service/internal/httpapi"
	"oneonone/agenda-service/internal/logging"
	"oneonone/agenda-service/internal/session"
	"oneonone/agenda-service/internal/telemetry"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr == "" {
				addr = ":" + cfg.Port
			}
			return runServe(cfg, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default \":$PORT\")")
	return cmd
}

func runServe(cfg config.Config, addr string) error {
	log := logging.New(os.Stdout, cfg.LogLevel, "json").With("service", "agenda-service")
	ctx := context.Background()

	shutdownTelemetry := telemetry.Setup(ctx, "agenda-service", log)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	if cfg.InsecureSecret() {
		log.Warn(ctx, "SECRET_KEY is not set, using the insecure development default")
	}

	users, closeUsers, err := newUserStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeUsers()

	sessions := session.NewManager(cfg.SecretKey, session.Options{TTL: cfg.SessionTTL, Secure: cfg.CookieSecure})
	handler, err := httpapi.NewHandler(users, sessions, newGenerator(cfg, log), newRenderer(ctx, cfg, log), log.With("component", "http"), httpapi.Options{
		FailureMode: cfg.AI.FailureMode,
		RateLimit: httpapi.RateLimitConfig{
			PerMinute: cfg.GenerateRateLimitPerMinute,
			Burst:     cfg.GenerateRateLimitBurst,
		},
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	mux.Handle("/", handler.Routes())

	server := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(httpapi.LoggingMiddleware(log.With("component", "access"), mux), "agenda-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout(cfg.AI),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "agenda-service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error(ctx, "shutdown error", "error", err)
		return err
	}
	log.Info(ctx, "agenda-service stopped")
	return nil
}

// writeTimeout leaves room for the AI call, whose timeout already spans all
// retries, plus rendering. No AI timeout means no write timeout.
func writeTimeout(ai config.AIConfig) time.Duration {
	if ai.Timeout <= 0 {
		return 0
	}
	return ai.Timeout + 30*time.Second
}
