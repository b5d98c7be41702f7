package feed

import (
	"log/slog"
	"strings"

	"github.com/mentarch/reading-agent/internal/domain"
)

// FilterByTopics keeps articles whose title or content contains any of
// the topics, case-insensitively, short-circuiting per article on the
// first match. With no topics configured the input passes through
// unchanged with a warning: an unconfigured filter must not silently
// drop everything.
func FilterByTopics(articles []domain.Article, topics []string, source string, logger *slog.Logger) []domain.Article {
	if len(topics) == 0 {
		if logger != nil {
			logger.Warn("no topics configured, passing articles through", "source", source)
		}
		return articles
	}

	lowered := make([]string, len(topics))
	for i, topic := range topics {
		lowered[i] = strings.ToLower(topic)
	}

	var filtered []domain.Article
	for _, article := range articles {
		title := strings.ToLower(article.Title)
		content := strings.ToLower(article.Content)

		for _, topic := range lowered {
			if strings.Contains(title, topic) || strings.Contains(content, topic) {
				filtered = append(filtered, article)
				break
			}
		}
	}
	return filtered
}
