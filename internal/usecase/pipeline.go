// Package usecase orchestrates one ingestion cycle: fetch, filter,
// dedup, summarize, persist, rank, notify.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mentarch/reading-agent/internal/domain"
	"github.com/mentarch/reading-agent/internal/infrastructure/feed"
	"github.com/mentarch/reading-agent/internal/ports"
	"github.com/mentarch/reading-agent/internal/quality"
	"github.com/mentarch/reading-agent/internal/relevance"
)

// Pipeline wires the stages of a single ingestion run. Stage failures
// are contained: a broken source, a rejected article, or a failed
// summary never abort the run.
type Pipeline struct {
	Fetchers   []ports.Fetcher
	Tracker    ports.Tracker
	Quality    *quality.Filter
	Summarizer ports.Summarizer
	Notifier   ports.Notifier

	Topics          []string
	MaxArticles     int
	RetentionDays   int
	FetchTimeout    time.Duration
	RankByRelevance bool

	Logger *slog.Logger
}

// Run executes one full cycle and returns the newly processed
// articles, ranked by relevance when enabled.
func (p *Pipeline) Run(ctx context.Context) ([]domain.Article, error) {
	logger := p.logger().With("run_id", uuid.NewString())
	started := time.Now()
	logger.Info("ingestion run started", "sources", len(p.Fetchers))

	if p.RetentionDays > 0 {
		if removed := p.Tracker.ClearOlderThan(ctx, p.RetentionDays); removed > 0 {
			logger.Info("expired tracking entries cleared", "removed", removed)
		}
	}

	batches := p.fetchAll(ctx, logger)

	var processed []domain.Article
	for i, fetcher := range p.Fetchers {
		processed = append(processed, p.processSource(ctx, logger, fetcher.Name(), batches[i])...)
	}

	if p.RankByRelevance && len(p.Topics) > 0 {
		processed = relevance.Rank(processed, p.Topics)
	}

	if p.Notifier != nil && len(processed) > 0 {
		if err := p.Notifier.PublishDigest(ctx, processed); err != nil {
			logger.Warn("digest delivery failed", "error", err)
		}
	}

	logger.Info("ingestion run finished",
		"processed", len(processed), "elapsed", time.Since(started).Round(time.Millisecond))
	return processed, nil
}

// fetchAll pulls every source concurrently. Results stay indexed by
// fetcher so per-source processing preserves configuration order; a
// failed fetch leaves its slot empty.
func (p *Pipeline) fetchAll(ctx context.Context, logger *slog.Logger) [][]domain.Article {
	batches := make([][]domain.Article, len(p.Fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, fetcher := range p.Fetchers {
		i, fetcher := i, fetcher
		g.Go(func() error {
			fetchCtx := gctx
			if p.FetchTimeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(gctx, p.FetchTimeout)
				defer cancel()
			}

			articles, err := fetcher.Fetch(fetchCtx)
			if err != nil {
				logger.Warn("source fetch failed", "source", fetcher.Name(), "error", err)
				return nil
			}
			batches[i] = articles
			return nil
		})
	}
	// Goroutines never return errors; Wait is for completion only.
	_ = g.Wait()

	return batches
}

// processSource runs the sequential per-source stages over one fetched
// batch and returns the articles that made it all the way through.
func (p *Pipeline) processSource(ctx context.Context, logger *slog.Logger, source string, articles []domain.Article) []domain.Article {
	if len(articles) == 0 {
		return nil
	}
	logger = logger.With("source", source)
	logger.Info("processing source", "fetched", len(articles))

	articles = feed.FilterByTopics(articles, p.Topics, source, logger)
	articles = p.dropProcessed(ctx, logger, articles)

	if p.Quality != nil {
		before := len(articles)
		articles = p.Quality.FilterArticles(ctx, articles)
		if dropped := before - len(articles); dropped > 0 {
			logger.Info("articles below quality thresholds", "dropped", dropped)
		}
	}

	if p.MaxArticles > 0 && len(articles) > p.MaxArticles {
		logger.Info("limiting batch", "max", p.MaxArticles, "skipped", len(articles)-p.MaxArticles)
		articles = articles[:p.MaxArticles]
	}

	var done []domain.Article
	for _, article := range articles {
		summary, err := p.Summarizer.Summarize(ctx, article)
		if err != nil {
			logger.Warn("summarization failed, skipping article", "title", article.Title, "error", err)
			continue
		}
		article.Summary = summary

		p.Tracker.MarkProcessed(ctx, article, summary)
		done = append(done, article)
	}

	logger.Info("source processed", "new_articles", len(done))
	return done
}

// dropProcessed removes articles already recorded by the tracker. A
// tracker read error keeps the article in the batch; the later mark is
// idempotent so the worst case is redundant work, not a lost article.
func (p *Pipeline) dropProcessed(ctx context.Context, logger *slog.Logger, articles []domain.Article) []domain.Article {
	fresh := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		seen, err := p.Tracker.IsProcessed(ctx, article)
		if err != nil {
			logger.Warn("dedup check failed, treating as new", "title", article.Title, "error", err)
		} else if seen {
			continue
		}
		fresh = append(fresh, article)
	}
	return fresh
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
