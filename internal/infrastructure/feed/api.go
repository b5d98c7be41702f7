package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mentarch/reading-agent/internal/domain"
	"github.com/mentarch/reading-agent/internal/ports"
)

// APIFetcher pulls articles from a JSON endpoint. Response shapes vary
// wildly between providers, so extraction probes a fixed set of common
// field names and falls back to documented defaults.
type APIFetcher struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.Fetcher = (*APIFetcher)(nil)

// NewAPIFetcher wires an HTTP client; nil selects a 30s-timeout default.
func NewAPIFetcher(name, url string, headers map[string]string, client *http.Client, logger *slog.Logger) *APIFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIFetcher{name: name, url: url, headers: headers, client: client, logger: logger}
}

// Name identifies the source in logs and tracked records.
func (f *APIFetcher) Name() string { return f.name }

// Fetch downloads and decodes the endpoint, accepting a bare list, a
// wrapper object, or a single article object.
func (f *APIFetcher) Fetch(ctx context.Context) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build api request: %w", err)
	}
	req.Header.Set("User-Agent", "reading-agent/1.0")
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch api %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api %s returned %s", f.url, resp.Status)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse api response %s: %w", f.url, err)
	}

	return f.extractArticles(payload), nil
}

// wrapperKeys are probed in order when the response is an object
// rather than a list.
var wrapperKeys = []string{"results", "items", "articles", "data", "response"}

func (f *APIFetcher) extractArticles(payload any) []domain.Article {
	switch value := payload.(type) {
	case []any:
		return f.fromList(value)
	case map[string]any:
		for _, key := range wrapperKeys {
			if list, ok := value[key].([]any); ok {
				return f.fromList(list)
			}
		}
		if article, ok := f.extractArticle(value); ok {
			return []domain.Article{article}
		}
	}
	return nil
}

func (f *APIFetcher) fromList(items []any) []domain.Article {
	var articles []domain.Article
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if article, ok := f.extractArticle(fields); ok {
			articles = append(articles, article)
		}
	}
	return articles
}

// extractArticle maps one response object onto the explicit article
// record. An item without any recognizable title is dropped.
func (f *APIFetcher) extractArticle(fields map[string]any) (domain.Article, bool) {
	title := stringField(fields, "title", "headline", "name")
	if title == "" {
		return domain.Article{}, false
	}

	article := domain.Article{
		Title:         title,
		URL:           stringField(fields, "url", "link", "href"),
		Content:       stringField(fields, "content", "description", "abstract", "summary", "body", "text"),
		Source:        f.name,
		PublishedDate: extractDate(fields),
		Authors:       extractAuthors(fields),
		DOI:           stringField(fields, "doi"),
		Journal:       stringField(fields, "journal", "venue", "container-title"),
	}
	return article, true
}

func stringField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := fields[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func extractAuthors(fields map[string]any) []string {
	for _, key := range []string{"authors", "author", "creator", "byline"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		switch value := raw.(type) {
		case []any:
			var authors []string
			for _, entry := range value {
				switch author := entry.(type) {
				case string:
					authors = append(authors, strings.TrimSpace(author))
				case map[string]any:
					if name := stringField(author, "name", "fullname"); name != "" {
						authors = append(authors, name)
					}
				}
			}
			return authors
		case string:
			var authors []string
			for _, name := range strings.Split(value, ",") {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					authors = append(authors, trimmed)
				}
			}
			return authors
		}
	}
	return nil
}

func extractDate(fields map[string]any) string {
	for _, key := range []string{"published_date", "pubDate", "date", "created_at", "publishedAt"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		switch value := raw.(type) {
		case string:
			// Drop fractional seconds before probing layouts.
			if normalized := normalizeDate(strings.SplitN(value, ".", 2)[0]); normalized != domain.UnknownDate {
				return normalized
			}
		case float64:
			// Assume Unix timestamp.
			return time.Unix(int64(value), 0).UTC().Format("2006-01-02")
		}
		break
	}
	return domain.UnknownDate
}
