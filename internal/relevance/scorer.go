// Package relevance ranks articles against configured topics using
// weighted lexical matching. Title matches dominate, exact multi-word
// phrase matches earn a bonus over incidental word overlap.
package relevance

import (
	"math"
	"sort"
	"strings"

	"github.com/mentarch/reading-agent/internal/domain"
)

const (
	titleWeight   = 0.5
	contentWeight = 0.35
	phraseBonus   = 0.15
)

// Score computes a [0,1] relevance score for one article. With no
// topics configured every article scores a neutral 0.5 — absence of
// topics must not look like irrelevance.
func Score(article domain.Article, topics []string) float64 {
	if len(topics) == 0 {
		return 0.5
	}

	title := strings.ToLower(article.Title)
	fullText := strings.ToLower(article.Content) + " " + strings.ToLower(article.Summary)

	var titleScore, contentScore, phraseScore float64

	for _, raw := range topics {
		topic := strings.TrimSpace(strings.ToLower(raw))
		words := strings.Fields(topic)

		if len(words) > 1 {
			if strings.Contains(title, topic) {
				titleScore += 1.0
				phraseScore += 0.5
			} else if anyWordIn(title, words) {
				titleScore += 0.5
			}

			if strings.Contains(fullText, topic) {
				contentScore += 1.0
				phraseScore += 0.25
			} else if anyWordIn(fullText, words) {
				contentScore += 0.3
			}
		} else {
			if strings.Contains(title, topic) {
				titleScore += 1.0
			}
			if strings.Contains(fullText, topic) {
				contentScore += 0.5
			}
		}
	}

	n := float64(len(topics))
	titleScore = math.Min(titleScore/n, 1.0)
	contentScore = math.Min(contentScore/n, 1.0)
	phraseScore = math.Min(phraseScore/n, 1.0)

	score := titleScore*titleWeight + contentScore*contentWeight + phraseScore*phraseBonus
	return math.Min(math.Max(score, 0.0), 1.0)
}

// Rank annotates every article with its relevance score and returns
// them sorted highest first. The sort is stable, so ties keep fetch
// order.
func Rank(articles []domain.Article, topics []string) []domain.Article {
	if len(articles) == 0 {
		return nil
	}

	ranked := make([]domain.Article, len(articles))
	copy(ranked, articles)

	for i := range ranked {
		ranked[i].RelevanceScore = math.Round(Score(ranked[i], topics)*1000) / 1000
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	return ranked
}

// Tier maps a score to a human-readable label for digest rendering.
func Tier(score float64) string {
	switch {
	case score >= 0.7:
		return "high"
	case score >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

func anyWordIn(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
