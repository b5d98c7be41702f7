// Package email renders and delivers the article digest over SMTP.
package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mentarch/reading-agent/internal/config"
	"github.com/mentarch/reading-agent/internal/domain"
	"github.com/mentarch/reading-agent/internal/ports"
	"github.com/mentarch/reading-agent/internal/relevance"
	"github.com/mentarch/reading-agent/internal/retry"
)

// Sender implements ports.Notifier over SMTP.
type Sender struct {
	cfg    config.EmailConfig
	policy retry.Policy
	logger *slog.Logger

	// send is swappable for tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

var _ ports.Notifier = (*Sender)(nil)

// NewSender registers the SMTP settings for digest delivery.
func NewSender(cfg config.EmailConfig, logger *slog.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		policy: retry.Policy{MaxAttempts: 3, InitialDelay: 3 * time.Second, Multiplier: 2.0, Logger: logger},
		logger: logger,
		send:   smtp.SendMail,
	}
}

// PublishDigest renders the articles and sends one digest email. The
// batch is capped at the configured per-email maximum.
func (s *Sender) PublishDigest(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}
	if s.cfg.SMTPServer == "" || s.cfg.From == "" || len(s.cfg.To) == 0 {
		return fmt.Errorf("email sender misconfigured")
	}

	if max := s.cfg.MaxArticlesPerEmail; max > 0 && len(articles) > max {
		if s.logger != nil {
			s.logger.Info("limiting digest", "max", max, "dropped", len(articles)-max)
		}
		articles = articles[:max]
	}

	subject := fmt.Sprintf("%s %d new articles - %s",
		s.cfg.SubjectPrefix, len(articles), time.Now().Format("2006-01-02"))

	var body, contentType string
	if strings.EqualFold(s.cfg.Format, "text") {
		body = s.renderText(articles)
		contentType = "text/plain; charset=utf-8"
	} else {
		body = s.renderHTML(articles)
		contentType = "text/html; charset=utf-8"
	}

	msg := buildMessage(s.cfg.From, s.cfg.To, subject, contentType, body)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPServer, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPServer)
	}

	return s.policy.Do(ctx, "send digest email", func(context.Context) error {
		return s.send(addr, auth, s.cfg.From, s.cfg.To, msg)
	})
}

func (s *Sender) renderHTML(articles []domain.Article) string {
	var b strings.Builder
	b.WriteString("<html><body><h2>Research Digest</h2>")

	for _, article := range articles {
		b.WriteString("<div style=\"margin-bottom:16px\">")
		fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(article.Title))
		fmt.Fprintf(&b, "<p><i>%s — %s</i>", html.EscapeString(article.Source),
			html.EscapeString(article.PublishedDate))
		if article.RelevanceScore > 0 {
			fmt.Fprintf(&b, " (relevance: %s)", relevance.Tier(article.RelevanceScore))
		}
		b.WriteString("</p>")
		if article.Summary != "" {
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(article.Summary))
		}
		if s.cfg.LinksEnabled() && article.URL != "" {
			fmt.Fprintf(&b, "<p><a href=\"%s\">Read more</a></p>", html.EscapeString(article.URL))
		}
		b.WriteString("</div>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func (s *Sender) renderText(articles []domain.Article) string {
	var b strings.Builder
	b.WriteString("Research Digest\n\n")

	for i, article := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, article.Title)
		fmt.Fprintf(&b, "   Source: %s (%s)\n", article.Source, article.PublishedDate)
		if article.RelevanceScore > 0 {
			fmt.Fprintf(&b, "   Relevance: %s\n", relevance.Tier(article.RelevanceScore))
		}
		if article.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", article.Summary)
		}
		if s.cfg.LinksEnabled() && article.URL != "" {
			fmt.Fprintf(&b, "   %s\n", article.URL)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func buildMessage(from string, to []string, subject, contentType, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
