// Package feed implements the article fetchers: RSS/Atom feeds and
// generic JSON APIs, plus the topic pre-filter and the source factory.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mentarch/reading-agent/internal/domain"
	"github.com/mentarch/reading-agent/internal/ports"
)

// minInlineContent is the threshold below which the feed's own
// description is considered too thin and the article page is fetched.
const minInlineContent = 200

// RSSFetcher pulls articles from an RSS 2.0 or Atom feed.
type RSSFetcher struct {
	name   string
	url    string
	client *http.Client
	logger *slog.Logger
}

var _ ports.Fetcher = (*RSSFetcher)(nil)

// NewRSSFetcher wires an HTTP client; nil selects a 20s-timeout default.
func NewRSSFetcher(name, url string, client *http.Client, logger *slog.Logger) *RSSFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSFetcher{name: name, url: url, client: client, logger: logger}
}

// Name identifies the source in logs and tracked records.
func (f *RSSFetcher) Name() string { return f.name }

// feedDocument covers both RSS 2.0 (<rss><channel><item>) and Atom
// (<feed><entry>) shapes.
type feedDocument struct {
	Channel *struct {
		Items []feedItem `xml:"item"`
	} `xml:"channel"`
	Entries []atomEntry `xml:"entry"`
}

type feedItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Encoded     string   `xml:"encoded"`
	Creator     string   `xml:"creator"`
	Authors     []string `xml:"author"`
	PubDate     string   `xml:"pubDate"`
}

type atomEntry struct {
	Title string `xml:"title"`
	Links []struct {
		Href string `xml:"href,attr"`
		Rel  string `xml:"rel,attr"`
	} `xml:"link"`
	Summary   string `xml:"summary"`
	Content   string `xml:"content"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

// Fetch downloads and parses the feed. Items with thin inline content
// get their article page fetched and reduced to readable text.
func (f *RSSFetcher) Fetch(ctx context.Context) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", "reading-agent/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %s", f.url, resp.Status)
	}

	var doc feedDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.url, err)
	}

	articles := f.collect(ctx, doc)
	if len(articles) == 0 && f.logger != nil {
		f.logger.Warn("no entries found in feed", "source", f.name, "url", f.url)
	}
	return articles, nil
}

func (f *RSSFetcher) collect(ctx context.Context, doc feedDocument) []domain.Article {
	var articles []domain.Article

	if doc.Channel != nil {
		for _, item := range doc.Channel.Items {
			article := domain.Article{
				Title:         strings.TrimSpace(item.Title),
				URL:           strings.TrimSpace(item.Link),
				Source:        f.name,
				Authors:       itemAuthors(item),
				PublishedDate: normalizeDate(item.PubDate),
				Content:       firstNonEmpty(item.Encoded, item.Description),
			}
			articles = append(articles, f.enrich(ctx, article))
		}
	}

	for _, entry := range doc.Entries {
		article := domain.Article{
			Title:         strings.TrimSpace(entry.Title),
			URL:           entryLink(entry),
			Source:        f.name,
			Authors:       entryAuthors(entry),
			PublishedDate: normalizeDate(firstNonEmpty(entry.Published, entry.Updated)),
			Content:       firstNonEmpty(entry.Content, entry.Summary),
		}
		articles = append(articles, f.enrich(ctx, article))
	}

	return articles
}

// enrich fills in missing content from the article page and strips
// markup from whatever content ends up attached.
func (f *RSSFetcher) enrich(ctx context.Context, article domain.Article) domain.Article {
	if article.URL != "" && len(article.Content) < minInlineContent {
		if page := f.fetchPageContent(ctx, article.URL); page != "" {
			article.Content = page
			return article
		}
	}
	article.Content = cleanHTML(article.Content)
	return article
}

// fetchPageContent downloads the article page and extracts readable
// text, preferring common article containers and dropping chrome.
func (f *RSSFetcher) fetchPageContent(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "reading-agent/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logWarn("fetch article page failed", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logWarn("article page status", "url", pageURL, "status", resp.Status)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		f.logWarn("parse article page failed", "url", pageURL, "error", err)
		return ""
	}

	container := doc.Find("article").First()
	if container.Length() == 0 {
		container = doc.Find("div.article").First()
	}
	if container.Length() == 0 {
		container = doc.Find("main").First()
	}
	if container.Length() == 0 {
		container = doc.Find("#content").First()
	}
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}

	container.Find("script, style, nav, header, footer, aside").Remove()
	return strings.TrimSpace(container.Text())
}

// cleanHTML reduces embedded feed HTML to plain text.
func cleanHTML(content string) string {
	if content == "" || !strings.Contains(content, "<") {
		return strings.TrimSpace(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(doc.Text())
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2 Jan 2006",
}

// normalizeDate reduces feed timestamps to YYYY-MM-DD, falling back to
// the unknown-date sentinel.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.UnknownDate
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return domain.UnknownDate
}

func itemAuthors(item feedItem) []string {
	if item.Creator != "" {
		return []string{strings.TrimSpace(item.Creator)}
	}
	var authors []string
	for _, author := range item.Authors {
		if trimmed := strings.TrimSpace(author); trimmed != "" {
			authors = append(authors, trimmed)
		}
	}
	return authors
}

func entryAuthors(entry atomEntry) []string {
	var authors []string
	for _, author := range entry.Authors {
		if trimmed := strings.TrimSpace(author.Name); trimmed != "" {
			authors = append(authors, trimmed)
		}
	}
	return authors
}

func entryLink(entry atomEntry) string {
	for _, link := range entry.Links {
		if link.Rel == "" || link.Rel == "alternate" {
			return strings.TrimSpace(link.Href)
		}
	}
	if len(entry.Links) > 0 {
		return strings.TrimSpace(entry.Links[0].Href)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (f *RSSFetcher) logWarn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
