package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentarch/reading-agent/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIsProcessedBeforeAndAfterMark(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	article := domain.Article{
		Title:  "Deep Learning in Computer Vision",
		Source: "Test",
		URL:    "https://example.com/article1",
	}

	processed, err := store.IsProcessed(ctx, article)
	require.NoError(t, err)
	assert.False(t, processed)

	require.True(t, store.MarkProcessed(ctx, article, "a summary"))

	processed, err = store.IsProcessed(ctx, article)
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestMarkProcessedIsIdempotent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	article := domain.Article{Title: "T", Source: "Test", URL: "https://example.com/a"}

	require.True(t, store.MarkProcessed(ctx, article, "s1"))
	require.True(t, store.MarkProcessed(ctx, article, "s2"))

	records, err := store.GetProcessed(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s2", records[0].Summary)
	assert.Equal(t, "https://example.com/a", records[0].Identity)
}

func TestClearOlderThanBoundary(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	mark := func(url string, at time.Time) {
		store.now = func() time.Time { return at }
		require.True(t, store.MarkProcessed(ctx, domain.Article{Title: url, Source: "Test", URL: url}, ""))
	}

	mark("https://example.com/old", base.AddDate(0, 0, -10))
	mark("https://example.com/fresh", base.AddDate(0, 0, -4))

	store.now = func() time.Time { return base }

	assert.Equal(t, 0, store.ClearOlderThan(ctx, 0))
	assert.Equal(t, 0, store.ClearOlderThan(ctx, -3))

	assert.Equal(t, 1, store.ClearOlderThan(ctx, 5))

	records, err := store.GetProcessed(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://example.com/fresh", records[0].Identity)
}

func TestClearOlderThanRetainsRecordExactlyAtCutoff(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base.AddDate(0, 0, -5) }
	require.True(t, store.MarkProcessed(ctx, domain.Article{URL: "https://example.com/edge", Source: "Test"}, ""))

	store.now = func() time.Time { return base }

	// Strictly-less-than cutoff: an exact match stays.
	assert.Equal(t, 0, store.ClearOlderThan(ctx, 5))

	records, err := store.GetProcessed(ctx, 0, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGetProcessedOrderingLimitAndSource(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	urls := []string{
		"https://example.com/article1",
		"https://example.com/article2",
		"https://example.com/article3",
	}
	for i, url := range urls {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		require.True(t, store.MarkProcessed(ctx, domain.Article{Title: url, Source: "Test", URL: url}, ""))
	}
	store.now = func() time.Time { return base.Add(time.Hour) }
	require.True(t, store.MarkProcessed(ctx, domain.Article{Title: "other", Source: "Other", URL: "https://example.com/other"}, ""))

	records, err := store.GetProcessed(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://example.com/other", records[0].Identity)
	assert.Equal(t, urls[2], records[1].Identity)

	records, err = store.GetProcessed(ctx, 0, "Test")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, urls[2], records[0].Identity)
	assert.Equal(t, urls[0], records[2].Identity)

	records, err = store.GetProcessed(ctx, 0, "Nope")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetProcessedTieBreaksOnIdentity(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return at }

	require.True(t, store.MarkProcessed(ctx, domain.Article{URL: "https://example.com/b", Source: "Test"}, ""))
	require.True(t, store.MarkProcessed(ctx, domain.Article{URL: "https://example.com/a", Source: "Test"}, ""))

	records, err := store.GetProcessed(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://example.com/a", records[0].Identity)
	assert.Equal(t, "https://example.com/b", records[1].Identity)
}

func TestStats(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		article := domain.Article{
			Title:  "Article",
			Source: "Test",
			URL:    fmt.Sprintf("https://example.com/article%d", i),
		}
		require.True(t, store.MarkProcessed(ctx, article, "s"))
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.BySource["Test"])
	assert.Equal(t, base.Add(time.Minute).Format(timeLayout), stats.Oldest)
	assert.Equal(t, base.Add(3*time.Minute).Format(timeLayout), stats.Newest)
}

func TestStatsEmptyStore(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.BySource)
	assert.Empty(t, stats.Oldest)
	assert.Empty(t, stats.Newest)
}

func TestReopenKeepsRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir, nil)
	require.NoError(t, err)
	require.True(t, store.MarkProcessed(ctx, domain.Article{URL: "https://example.com/persist", Source: "Test"}, "kept"))
	require.NoError(t, store.Close())

	store, err = Open(dir, nil)
	require.NoError(t, err)
	defer store.Close()

	processed, err := store.IsProcessed(ctx, domain.Article{URL: "https://example.com/persist"})
	require.NoError(t, err)
	assert.True(t, processed)
}
