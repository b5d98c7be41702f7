// Package llm summarizes article content through an OpenAI-compatible
// chat-completions API, degrading to an extractive summary when the
// service is unavailable.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mentarch/reading-agent/internal/config"
	"github.com/mentarch/reading-agent/internal/domain"
	"github.com/mentarch/reading-agent/internal/ports"
	"github.com/mentarch/reading-agent/internal/retry"
)

// noContentFallback is returned for articles with nothing to summarize.
const noContentFallback = "No content available to summarize."

// maxPromptContent caps how much article text is sent per request.
const maxPromptContent = 10000

const systemPrompt = "You are a specialized academic assistant that summarizes " +
	"research papers in just 2-3 concise sentences."

// OpenAISummarizer implements ports.Summarizer backed by the OpenAI
// chat-completions endpoint.
type OpenAISummarizer struct {
	endpoint  string
	model     string
	apiKey    string
	maxTokens int
	http      *http.Client
	policy    retry.Policy
	logger    *slog.Logger
}

var _ ports.Summarizer = (*OpenAISummarizer)(nil)

// NewOpenAISummarizer builds a summarizer from configuration.
func NewOpenAISummarizer(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAISummarizer {
	return &OpenAISummarizer{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		maxTokens: cfg.MaxSummaryTokens,
		http:      &http.Client{Timeout: 60 * time.Second},
		policy:    retry.DefaultPolicy(logger),
		logger:    logger,
	}
}

// Summarize produces a 2-3 sentence summary of the article. Failures
// never escape: when the API is unreachable or misconfigured the
// extractive fallback is returned instead.
func (s *OpenAISummarizer) Summarize(ctx context.Context, article domain.Article) (string, error) {
	if strings.TrimSpace(article.Content) == "" {
		s.logWarn("no content to summarize", "title", article.Title)
		return noContentFallback, nil
	}

	if s.apiKey == "" || s.endpoint == "" || s.model == "" {
		s.logWarn("summarizer not configured, using extractive fallback", "title", article.Title)
		return ExtractiveSummary(article.Content, 100), nil
	}

	var summary string
	err := s.policy.Do(ctx, "openai summarize", func(ctx context.Context) error {
		var reqErr error
		summary, reqErr = s.complete(ctx, article)
		return reqErr
	})
	if err != nil {
		s.logError("summarization failed, using extractive fallback", err, "title", article.Title)
		return ExtractiveSummary(article.Content, 100), nil
	}

	return summary, nil
}

func (s *OpenAISummarizer) complete(ctx context.Context, article domain.Article) (string, error) {
	content := article.Content
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}

	userPrompt := fmt.Sprintf(
		"Please summarize the following research article in ONLY 2-3 sentences:\n\n"+
			"Title: %s\n\n%s\n\n"+
			"Focus ONLY on the most important research contributions and findings.\n"+
			"Your summary MUST be only 2-3 sentences long, no exceptions.",
		article.Title, content)

	body, err := json.Marshal(map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"max_tokens":  s.maxTokens,
		"temperature": 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

func (s *OpenAISummarizer) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *OpenAISummarizer) logError(msg string, err error, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, append([]any{"error", err}, args...)...)
	}
}
