package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mentarch/reading-agent/internal/domain"
)

// Resolve derives the stable deduplication key for an article. The key
// doubles as the tracking store primary key, so the same input fields
// must always produce the same identity.
//
// Preference order: URL verbatim, then "source:title", then title
// alone, then a content hash for degenerate items. Always non-empty.
func Resolve(article domain.Article) string {
	if article.URL != "" {
		return article.URL
	}

	title := strings.TrimSpace(article.Title)
	source := strings.TrimSpace(article.Source)

	if title != "" && source != "" {
		return source + ":" + title
	}

	// Title alone may collide across sources; accepted trade-off.
	if title != "" {
		return title
	}

	return contentHash(article)
}

func contentHash(article domain.Article) string {
	h := sha256.New()
	h.Write([]byte(article.Title))
	h.Write([]byte{0})
	h.Write([]byte(article.Source))
	h.Write([]byte{0})
	h.Write([]byte(article.Content))
	return hex.EncodeToString(h.Sum(nil))
}
