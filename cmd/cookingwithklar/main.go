package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cookingwithklar/internal/config"
	"cookingwithklar/internal/database"
	"cookingwithklar/internal/grocery"
	"cookingwithklar/internal/llm"
	"cookingwithklar/internal/logging"
	"cookingwithklar/internal/meal"
	"cookingwithklar/internal/metrics"
	"cookingwithklar/internal/plan"
	"cookingwithklar/internal/server"
	"cookingwithklar/internal/survey"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// metricsRetentionDays bounds the completion_metrics table; rows older than
// this are dropped at startup.
const metricsRetentionDays = 90

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database ready", zap.String("path", cfg.DatabasePath))

	var completer llm.Completer
	switch cfg.CompletionProvider {
	case config.ProviderGemini:
		gemini, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return err
		}
		completer = gemini
		if closer, ok := completer.(llm.Closer); ok {
			defer closer.Close()
		}
	case config.ProviderAnthropic:
		completer = llm.NewAnthropicClient(cfg)
	}
	logger.Info("completion provider ready", zap.String("provider", cfg.CompletionProvider))

	surveyRepo := survey.NewRepository(db.SQL)
	mealRepo := meal.NewRepository(db.SQL)
	planRepo := plan.NewRepository(db.SQL)
	groceryRepo := grocery.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	if err := metricsStore.Cleanup(metricsRetentionDays); err != nil {
		logger.Warn("failed to clean up old completion metrics", zap.Error(err))
	}

	aggregator := grocery.NewAggregator(planRepo, groceryRepo, logger)
	sourcer := meal.NewAISourcer(completer, cfg.SourcingTimeout, metricsStore, logger)
	procedure := plan.NewProcedure(db.SQL, mealRepo, aggregator)
	orchestrator := plan.NewOrchestrator(
		surveyRepo, mealRepo, planRepo, sourcer, procedure, aggregator, groceryRepo, logger,
	)

	sessions := server.NewSessions(cfg.SessionSigningKey)
	srv := server.New(orchestrator, groceryRepo, mealRepo, metricsStore, sessions, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
