package ports

import (
	"context"

	"github.com/mentarch/reading-agent/internal/domain"
)

// Fetcher pulls fresh articles from one configured source. A failing
// fetch affects only its own source; the pipeline catches the error.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Article, error)
}

// Tracker is the persistent seen-article store guarding against
// duplicate processing.
type Tracker interface {
	IsProcessed(ctx context.Context, article domain.Article) (bool, error)
	MarkProcessed(ctx context.Context, article domain.Article, summary string) bool
	ClearOlderThan(ctx context.Context, days int) int
	GetProcessed(ctx context.Context, limit int, source string) ([]domain.TrackedArticle, error)
	Stats(ctx context.Context) (domain.TrackerStats, error)
}

// Summarizer produces a short digest summary for an article. It must
// degrade to fallback text rather than fail past its boundary.
type Summarizer interface {
	Summarize(ctx context.Context, article domain.Article) (string, error)
}

// MetricsProvider resolves external quality signals. CitationCount
// degrades to 0 on any failure, including "not found". JournalHIndex
// reports an error when the value could not be resolved so callers can
// tell a low h-index from a failed lookup.
type MetricsProvider interface {
	CitationCount(ctx context.Context, doi, title string) int
	JournalHIndex(ctx context.Context, journal string) (int, error)
}

// Notifier delivers the finished digest downstream.
type Notifier interface {
	PublishDigest(ctx context.Context, articles []domain.Article) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func()) error
	Stop()
}
