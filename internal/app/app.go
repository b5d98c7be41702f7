// Package app wires configuration to the ingestion pipeline and its
// infrastructure, and owns the run lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mentarch/reading-agent/internal/config"
	"github.com/mentarch/reading-agent/internal/infrastructure/crossref"
	"github.com/mentarch/reading-agent/internal/infrastructure/email"
	"github.com/mentarch/reading-agent/internal/infrastructure/feed"
	"github.com/mentarch/reading-agent/internal/infrastructure/llm"
	"github.com/mentarch/reading-agent/internal/infrastructure/scheduler"
	"github.com/mentarch/reading-agent/internal/logging"
	"github.com/mentarch/reading-agent/internal/ports"
	"github.com/mentarch/reading-agent/internal/quality"
	"github.com/mentarch/reading-agent/internal/tracker"
	"github.com/mentarch/reading-agent/internal/usecase"
)

// Application holds the assembled pipeline and its lifecycle pieces.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	tracker  *tracker.Store
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. The tracker database is
// opened here; callers must Close the application when done.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.App.LogLevel)
	}

	store, err := tracker.Open(cfg.App.StoragePath, baseLogger.With("component", "tracker"))
	if err != nil {
		return nil, fmt.Errorf("open tracker: %w", err)
	}

	fetchers := feed.BuildFetchers(cfg.Sources, baseLogger.With("component", "feed"))
	if len(fetchers) == 0 {
		baseLogger.Warn("no enabled sources configured")
	}

	var metrics ports.MetricsProvider
	if cfg.Quality.MinCitations > 0 || cfg.Quality.MinHIndex > 0 {
		metrics = crossref.New("", baseLogger.With("component", "crossref"))
	}

	var notifier ports.Notifier
	if cfg.Email.SMTPServer != "" {
		notifier = email.NewSender(cfg.Email, baseLogger.With("component", "email"))
	} else {
		baseLogger.Info("email not configured, digests disabled")
	}

	pipeline := &usecase.Pipeline{
		Fetchers:        fetchers,
		Tracker:         store,
		Quality:         quality.New(cfg.Quality.MinCitations, cfg.Quality.MinHIndex, metrics, baseLogger.With("component", "quality")),
		Summarizer:      llm.NewOpenAISummarizer(cfg.OpenAI, baseLogger.With("component", "llm")),
		Notifier:        notifier,
		Topics:          cfg.Topics,
		MaxArticles:     cfg.App.MaxArticlesToProcess,
		RetentionDays:   cfg.App.RetentionDays(),
		FetchTimeout:    cfg.App.FetchTimeout(),
		RankByRelevance: cfg.App.RankingEnabled(),
		Logger:          baseLogger.With("component", "pipeline"),
	}

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		tracker:  store,
		pipeline: pipeline,
	}, nil
}

// Tracker exposes the seen-article store for inspection commands.
func (a *Application) Tracker() *tracker.Store {
	return a.tracker
}

// RunOnce executes a single ingestion cycle.
func (a *Application) RunOnce(ctx context.Context) error {
	_, err := a.pipeline.Run(ctx)
	return err
}

// RunLoop runs the pipeline on the configured schedule until the
// context is cancelled or an interrupt arrives.
func (a *Application) RunLoop(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(a.cfg.App.UpdateFrequency, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx, func() {
		if _, err := a.pipeline.Run(ctx); err != nil {
			a.logger.Error("ingestion run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	<-ctx.Done()
	a.logger.Info("shutting down")
	return nil
}

// Close releases the tracker database.
func (a *Application) Close() error {
	return a.tracker.Close()
}
