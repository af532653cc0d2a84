// Command server starts the Code Review Trainer HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fairyhunter13/code-review-trainer/internal/adapter/ai/openrouter"
	"github.com/fairyhunter13/code-review-trainer/internal/adapter/ai/stub"
	httpserver "github.com/fairyhunter13/code-review-trainer/internal/adapter/httpserver"
	"github.com/fairyhunter13/code-review-trainer/internal/adapter/observability"
	"github.com/fairyhunter13/code-review-trainer/internal/adapter/problembank"
	"github.com/fairyhunter13/code-review-trainer/internal/app"
	"github.com/fairyhunter13/code-review-trainer/internal/config"
	"github.com/fairyhunter13/code-review-trainer/internal/domain"
	"github.com/fairyhunter13/code-review-trainer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	bank, err := problembank.New()
	if err != nil {
		slog.Error("problem bank load failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Model client: real provider when configured, deterministic stub in dev,
	// nil otherwise so unconfigured prod degrades to fallback results.
	var aicl domain.AIClient
	switch {
	case cfg.AIEnabled():
		aicl = openrouter.New(cfg)
		slog.Info("AI client initialized", slog.String("model", cfg.OpenRouterModel))
	case cfg.IsDev():
		aicl = stub.New()
		slog.Warn("no API key configured; using stub AI client")
	default:
		slog.Warn("no API key configured; evaluations will return fallback results")
	}

	evalSvc := usecase.NewEvaluateService(aicl)
	srv := httpserver.NewServer(cfg, evalSvc, bank)
	handler := app.BuildRouter(cfg, srv)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
