package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mentarch/reading-agent/internal/domain"
)

func apiServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAPIFetcherListResponse(t *testing.T) {
	t.Parallel()

	server := apiServer(t, `[
		{"title": "First", "url": "https://example.com/1", "abstract": "text one",
		 "authors": ["A. One", "B. Two"], "published_date": "2026-02-20"},
		{"headline": "Second", "link": "https://example.com/2", "body": "text two",
		 "author": "C. Three, D. Four", "pubDate": "2026-02-21T09:30:00"},
		{"no_title_here": true}
	]`)

	fetcher := NewAPIFetcher("API", server.URL, nil, server.Client(), nil)
	articles, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "First" || first.URL != "https://example.com/1" {
		t.Fatalf("unexpected first article: %+v", first)
	}
	if first.Content != "text one" {
		t.Fatalf("unexpected content: %s", first.Content)
	}
	if len(first.Authors) != 2 {
		t.Fatalf("unexpected authors: %v", first.Authors)
	}
	if first.PublishedDate != "2026-02-20" {
		t.Fatalf("unexpected date: %s", first.PublishedDate)
	}

	second := articles[1]
	if second.Title != "Second" || second.PublishedDate != "2026-02-21" {
		t.Fatalf("unexpected second article: %+v", second)
	}
	if len(second.Authors) != 2 || second.Authors[0] != "C. Three" {
		t.Fatalf("comma-separated authors not split: %v", second.Authors)
	}
}

func TestAPIFetcherWrapperResponse(t *testing.T) {
	t.Parallel()

	server := apiServer(t, `{"results": [
		{"title": "Wrapped", "url": "https://example.com/w",
		 "authors": [{"name": "E. Five"}], "doi": "10.1/w", "journal": "Nature"}
	]}`)

	fetcher := NewAPIFetcher("API", server.URL, nil, server.Client(), nil)
	articles, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	article := articles[0]
	if article.Title != "Wrapped" {
		t.Fatalf("unexpected title: %s", article.Title)
	}
	if len(article.Authors) != 1 || article.Authors[0] != "E. Five" {
		t.Fatalf("author objects not extracted: %v", article.Authors)
	}
	if article.DOI != "10.1/w" || article.Journal != "Nature" {
		t.Fatalf("metrics keys not extracted: %+v", article)
	}
	if article.PublishedDate != domain.UnknownDate {
		t.Fatalf("expected sentinel date, got %s", article.PublishedDate)
	}
}

func TestAPIFetcherSingleObjectResponse(t *testing.T) {
	t.Parallel()

	server := apiServer(t, `{"title": "Solo", "date": 1767225600}`)

	fetcher := NewAPIFetcher("API", server.URL, nil, server.Client(), nil)
	articles, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(articles) != 1 || articles[0].Title != "Solo" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
	if articles[0].PublishedDate != "2026-01-01" {
		t.Fatalf("unix timestamp not normalized: %s", articles[0].PublishedDate)
	}
}

func TestAPIFetcherSendsConfiguredHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("missing configured header")
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	fetcher := NewAPIFetcher("API", server.URL, map[string]string{"X-Api-Key": "secret"}, server.Client(), nil)
	if _, err := fetcher.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
}

func TestAPIFetcherBadJSON(t *testing.T) {
	t.Parallel()

	server := apiServer(t, `{not json`)

	fetcher := NewAPIFetcher("API", server.URL, nil, server.Client(), nil)
	if _, err := fetcher.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on bad json")
	}
}
