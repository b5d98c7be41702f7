package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mentarch/reading-agent/internal/domain"
)

func TestFilterByTopicsMatchesTitleOrContent(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{
		{Title: "Neural Networks in Vision"},
		{Title: "Unrelated", Content: "mentions deep learning once"},
		{Title: "Nothing relevant", Content: "gardening"},
	}

	filtered := FilterByTopics(articles, []string{"neural networks", "deep learning"}, "Test", nil)

	assert.Len(t, filtered, 2)
	assert.Equal(t, "Neural Networks in Vision", filtered[0].Title)
	assert.Equal(t, "Unrelated", filtered[1].Title)
}

func TestFilterByTopicsCaseInsensitive(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{{Title: "ROBOTICS TODAY"}}
	filtered := FilterByTopics(articles, []string{"robotics"}, "Test", nil)
	assert.Len(t, filtered, 1)
}

func TestFilterByTopicsNoTopicsPassesThrough(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{{Title: "A"}, {Title: "B"}}
	filtered := FilterByTopics(articles, nil, "Test", nil)
	assert.Equal(t, articles, filtered)
}

func TestFilterByTopicsSingleMatchPerArticle(t *testing.T) {
	t.Parallel()

	// An article matching several topics must appear once.
	articles := []domain.Article{{Title: "neural networks and deep learning"}}
	filtered := FilterByTopics(articles, []string{"neural networks", "deep learning"}, "Test", nil)
	assert.Len(t, filtered, 1)
}
