// Package tracker implements the persistent seen-article store. It is
// the only stateful component in the pipeline: a single SQLite file
// keyed by article identity, written through idempotent upserts and
// pruned by a time-based retention sweep.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mentarch/reading-agent/internal/domain"
	"github.com/mentarch/reading-agent/internal/identity"
	"github.com/mentarch/reading-agent/internal/ports"
)

const (
	dbFileName = "tracking.db"
	tableName  = "processed_articles"

	// Fixed-width UTC layout so lexicographic comparison of stored
	// timestamps matches chronological order.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_articles (
	identity     TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	source       TEXT NOT NULL,
	url          TEXT NOT NULL DEFAULT '',
	summary      TEXT,
	processed_at TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_articles_processed_at ON processed_articles(processed_at);
CREATE INDEX IF NOT EXISTS idx_processed_articles_source ON processed_articles(source);
`

// Store is the SQLite-backed tracking store. Safe for use from the
// pipeline's sequential stages; concurrency is handled by SQLite
// itself (WAL, busy timeout), not by in-process locks.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.Tracker = (*Store)(nil)

// Open creates or opens the tracking database under storagePath,
// applies pragmas and schema, and imports the legacy flat-file tracker
// if one is present. Open failure is fatal to the caller: without the
// store no dedup guarantee can be made.
func Open(storagePath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(storagePath, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY between our own operations.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	store := &Store{db: db, logger: logger, now: time.Now}
	store.importLegacy(storagePath)
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// IsProcessed reports whether the article's identity is already
// tracked. No side effects.
func (s *Store) IsProcessed(ctx context.Context, article domain.Article) (bool, error) {
	query, args, err := sq.Select("1").
		From(tableName).
		Where(sq.Eq{"identity": identity.Resolve(article)}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build membership query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

// MarkProcessed upserts the tracking record for the article. A repeat
// mark for the same identity replaces summary and processed timestamp,
// never duplicates the row. A failed write is logged and reported as
// false so one bad write never aborts the caller's batch.
func (s *Store) MarkProcessed(ctx context.Context, article domain.Article, summary string) bool {
	now := s.now().UTC().Format(timeLayout)

	query, args, err := sq.Insert(tableName).
		Columns("identity", "title", "source", "url", "summary", "processed_at", "created_at").
		Values(identity.Resolve(article), article.Title, article.Source, article.URL, summary, now, now).
		Suffix(`ON CONFLICT(identity) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			url = excluded.url,
			summary = excluded.summary,
			processed_at = excluded.processed_at`).
		ToSql()
	if err != nil {
		s.logError("build upsert", err)
		return false
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logError("mark processed", err, "title", article.Title)
		return false
	}
	return true
}

// ClearOlderThan deletes records whose processed timestamp is strictly
// earlier than now minus the given number of days and returns how many
// were removed. A non-positive day count is a no-op returning 0; so is
// any underlying failure.
func (s *Store) ClearOlderThan(ctx context.Context, days int) int {
	if days <= 0 {
		return 0
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(timeLayout)

	query, args, err := sq.Delete(tableName).
		Where(sq.Lt{"processed_at": cutoff}).
		ToSql()
	if err != nil {
		s.logError("build sweep", err)
		return 0
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logError("retention sweep", err)
		return 0
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		s.logError("retention sweep rows", err)
		return 0
	}
	return int(deleted)
}

// GetProcessed returns tracked records newest first, optionally
// filtered by source and capped at limit. Equal timestamps break ties
// on identity ascending so the order is deterministic.
func (s *Store) GetProcessed(ctx context.Context, limit int, source string) ([]domain.TrackedArticle, error) {
	builder := sq.Select("identity", "title", "source", "url", "summary", "processed_at", "created_at").
		From(tableName).
		OrderBy("processed_at DESC", "identity ASC")

	if source != "" {
		builder = builder.Where(sq.Eq{"source": source})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build listing query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	var records []domain.TrackedArticle
	for rows.Next() {
		var record domain.TrackedArticle
		var summary sql.NullString
		err := rows.Scan(&record.Identity, &record.Title, &record.Source,
			&record.URL, &summary, &record.ProcessedAt, &record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		record.Summary = summary.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// Stats aggregates the store: total rows, per-source counts, and the
// oldest/newest processed timestamps present.
func (s *Store) Stats(ctx context.Context) (domain.TrackerStats, error) {
	stats := domain.TrackerStats{BySource: map[string]int{}}

	query, args, err := sq.Select("COUNT(*)", "COALESCE(MIN(processed_at), '')", "COALESCE(MAX(processed_at), '')").
		From(tableName).
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("build stats query: %w", err)
	}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &stats.Oldest, &stats.Newest)
	if err != nil {
		return stats, fmt.Errorf("query totals: %w", err)
	}

	query, args, err = sq.Select("source", "COUNT(*)").
		From(tableName).
		GroupBy("source").
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("build per-source query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return stats, fmt.Errorf("query per-source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return stats, fmt.Errorf("scan per-source: %w", err)
		}
		stats.BySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("per-source iteration: %w", err)
	}

	return stats, nil
}

func (s *Store) logError(msg string, err error, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, append([]any{"error", err}, args...)...)
	}
}
