// Package crossref resolves citation metrics from the Crossref works
// API. All lookups degrade to a neutral result instead of propagating
// errors: quality filtering must never abort a pipeline run.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/mentarch/reading-agent/internal/ports"
	"github.com/mentarch/reading-agent/internal/retry"
)

const defaultBaseURL = "https://api.crossref.org/works"

// hIndexSampleSize caps how many works are fetched to approximate a
// journal h-index.
const hIndexSampleSize = 100

// Client talks to the Crossref REST API.
type Client struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
	logger  *slog.Logger
}

var _ ports.MetricsProvider = (*Client)(nil)

// New creates a reusable client. baseURL is overridable for tests;
// empty selects the public API.
func New(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		policy:  retry.DefaultPolicy(logger),
		logger:  logger,
	}
}

type work struct {
	ReferencedByCount int `json:"is-referenced-by-count"`
}

type worksResponse struct {
	Message struct {
		Items []work `json:"items"`
	} `json:"message"`
}

type workResponse struct {
	Message work `json:"message"`
}

// CitationCount returns how often the article is referenced, looked up
// by DOI when available, else by bibliographic title query. Returns 0
// when neither key is present or on any failure.
func (c *Client) CitationCount(ctx context.Context, doi, title string) int {
	if doi == "" && title == "" {
		return 0
	}

	var count int
	err := c.policy.Do(ctx, "crossref citation count", func(ctx context.Context) error {
		if doi != "" {
			var resp workResponse
			if err := c.get(ctx, c.baseURL+"/"+url.PathEscape(doi), &resp); err != nil {
				return err
			}
			count = resp.Message.ReferencedByCount
			return nil
		}

		endpoint := fmt.Sprintf("%s?query.bibliographic=%s&rows=1", c.baseURL, url.QueryEscape(title))
		var resp worksResponse
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return err
		}
		if len(resp.Message.Items) > 0 {
			count = resp.Message.Items[0].ReferencedByCount
		}
		return nil
	})
	if err != nil {
		c.logError("citation lookup failed", err)
		return 0
	}
	return count
}

// JournalHIndex approximates the journal's h-index from the citation
// counts of a sample of its works: the largest h such that h works
// have at least h citations each.
func (c *Client) JournalHIndex(ctx context.Context, journal string) (int, error) {
	if journal == "" {
		return 0, fmt.Errorf("empty journal name")
	}

	endpoint := fmt.Sprintf("%s?filter=container-title:%s&rows=%d",
		c.baseURL, url.QueryEscape(journal), hIndexSampleSize)

	var resp worksResponse
	err := c.policy.Do(ctx, "crossref journal metrics", func(ctx context.Context) error {
		return c.get(ctx, endpoint, &resp)
	})
	if err != nil {
		c.logError("journal metrics lookup failed", err, "journal", journal)
		return 0, err
	}

	citations := make([]int, 0, len(resp.Message.Items))
	for _, item := range resp.Message.Items {
		citations = append(citations, item.ReferencedByCount)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(citations)))

	h := 0
	for i, count := range citations {
		if count >= i+1 {
			h = i + 1
		} else {
			break
		}
	}
	return h, nil
}

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "reading-agent/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) logError(msg string, err error, args ...any) {
	if c.logger != nil {
		c.logger.Error(msg, append([]any{"error", err}, args...)...)
	}
}
