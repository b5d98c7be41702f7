// Package quality gates articles on external citation metrics before
// expensive summarization work.
package quality

import (
	"context"
	"log/slog"

	"github.com/mentarch/reading-agent/internal/domain"
	"github.com/mentarch/reading-agent/internal/ports"
)

// Filter admits or rejects articles by citation count and, when
// configured, approximate journal h-index. Zero thresholds disable the
// corresponding check.
type Filter struct {
	minCitations int
	minHIndex    int
	metrics      ports.MetricsProvider
	logger       *slog.Logger
}

// New builds a filter backed by the given metrics provider.
func New(minCitations, minHIndex int, metrics ports.MetricsProvider, logger *slog.Logger) *Filter {
	return &Filter{
		minCitations: minCitations,
		minHIndex:    minHIndex,
		metrics:      metrics,
		logger:       logger,
	}
}

// Passes resolves metrics for the article and applies the thresholds.
// Metrics are attached to the article regardless of outcome so later
// stages can observe them. An unresolvable h-index never fails the
// article; the threshold only applies when a value is available.
func (f *Filter) Passes(ctx context.Context, article *domain.Article) bool {
	f.resolveMetrics(ctx, article)

	if f.minCitations > 0 && article.Metrics.Citations < f.minCitations {
		f.log("article filtered on citations", article.Title,
			"citations", article.Metrics.Citations, "min", f.minCitations)
		return false
	}

	if f.minHIndex > 0 && article.Metrics.HIndexKnown && article.Metrics.HIndex < f.minHIndex {
		f.log("article filtered on journal h-index", article.Title,
			"h_index", article.Metrics.HIndex, "min", f.minHIndex)
		return false
	}

	return true
}

// FilterArticles returns the articles that pass, preserving order.
func (f *Filter) FilterArticles(ctx context.Context, articles []domain.Article) []domain.Article {
	passed := make([]domain.Article, 0, len(articles))
	for i := range articles {
		if f.Passes(ctx, &articles[i]) {
			passed = append(passed, articles[i])
		}
	}
	return passed
}

func (f *Filter) resolveMetrics(ctx context.Context, article *domain.Article) {
	if f.metrics == nil {
		return
	}

	article.Metrics.Citations = f.metrics.CitationCount(ctx, article.DOI, article.Title)

	if f.minHIndex > 0 && article.Journal != "" {
		hIndex, err := f.metrics.JournalHIndex(ctx, article.Journal)
		if err != nil {
			// A failed lookup must not fail the article.
			f.log("journal h-index unavailable", article.Title, "journal", article.Journal, "error", err)
			return
		}
		article.Metrics.HIndex = hIndex
		article.Metrics.HIndexKnown = true
	}
}

func (f *Filter) log(msg, title string, args ...any) {
	if f.logger != nil {
		f.logger.Info(msg, append([]any{"title", title}, args...)...)
	}
}
