package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mentarch/reading-agent/internal/config"
	"github.com/mentarch/reading-agent/internal/domain"
	"github.com/mentarch/reading-agent/internal/retry"
)

func newTestSummarizer(endpoint string) *OpenAISummarizer {
	s := NewOpenAISummarizer(config.OpenAIConfig{
		Endpoint:         endpoint,
		Model:            "gpt-4o-mini",
		APIKey:           "test-key",
		MaxSummaryTokens: 150,
	}, nil)
	s.policy = retry.Policy{MaxAttempts: 1}
	return s
}

func TestSummarizeCallsAPI(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Model != "gpt-4o-mini" {
			t.Errorf("unexpected model: %s", payload.Model)
		}
		if len(payload.Messages) != 2 || !strings.Contains(payload.Messages[1].Content, "A Title") {
			t.Errorf("prompt missing article title")
		}

		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": " A crisp summary. "}}]}`))
	}))
	defer server.Close()

	summary, err := newTestSummarizer(server.URL).Summarize(context.Background(), domain.Article{
		Title:   "A Title",
		Content: "Plenty of article content to summarize here.",
	})
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if summary != "A crisp summary." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestSummarizeEmptyContentUsesFixedFallback(t *testing.T) {
	t.Parallel()

	summary, err := newTestSummarizer("http://unused").Summarize(context.Background(), domain.Article{Title: "T"})
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if summary != noContentFallback {
		t.Fatalf("unexpected fallback: %q", summary)
	}
}

func TestSummarizeAPIFailureFallsBackToExtractive(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	content := "First sentence of findings. Second sentence with detail. Third one."
	summary, err := newTestSummarizer(server.URL).Summarize(context.Background(), domain.Article{
		Title:   "T",
		Content: content,
	})
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if !strings.Contains(summary, "First sentence of findings.") {
		t.Fatalf("expected extractive fallback, got %q", summary)
	}
}

func TestSummarizeUnconfiguredUsesExtractive(t *testing.T) {
	t.Parallel()

	s := NewOpenAISummarizer(config.OpenAIConfig{}, nil)
	summary, err := s.Summarize(context.Background(), domain.Article{
		Title:   "T",
		Content: "Only sentence here.",
	})
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if summary != "Only sentence here." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestExtractiveSummaryRespectsWordBudget(t *testing.T) {
	t.Parallel()

	content := "One two three four five. Six seven eight nine ten. Eleven twelve."
	summary := ExtractiveSummary(content, 10)
	if summary != "One two three four five. Six seven eight nine ten." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestExtractiveSummaryLongFirstSentence(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("word ", 50) + "end."
	summary := ExtractiveSummary(content, 10)
	if !strings.HasSuffix(summary, "...") {
		t.Fatalf("expected truncation marker: %q", summary)
	}
	if got := len(strings.Fields(summary)); got != 10 {
		t.Fatalf("expected 10 words, got %d", got)
	}
}

func TestExtractiveSummaryEmptyContent(t *testing.T) {
	t.Parallel()

	if got := ExtractiveSummary("", 100); got != noContentFallback {
		t.Fatalf("unexpected: %q", got)
	}
}
