package llm

import (
	"regexp"
	"strings"
)

var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)

// ExtractiveSummary builds a crude summary from the leading sentences
// of the content, capped at maxWords. Used when the LLM is unavailable.
func ExtractiveSummary(content string, maxWords int) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return noContentFallback
	}
	if maxWords <= 0 {
		maxWords = 100
	}

	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return truncate(content, 500)
	}

	var picked []string
	wordCount := 0
	for i, sentence := range sentences {
		if i == 5 {
			break
		}
		words := strings.Fields(sentence)
		if wordCount+len(words) > maxWords {
			break
		}
		picked = append(picked, sentence)
		wordCount += len(words)
	}

	if len(picked) > 0 {
		return strings.Join(picked, " ")
	}

	// First sentence alone exceeds the budget; cut it at the word cap.
	words := strings.Fields(sentences[0])
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ") + "..."
}

// splitSentences keeps the terminating punctuation attached to each
// sentence.
func splitSentences(content string) []string {
	locs := sentenceSplit.FindAllStringIndex(content, -1)
	var sentences []string
	start := 0
	for _, loc := range locs {
		// loc[0]+1 is just past the punctuation mark.
		sentences = append(sentences, strings.TrimSpace(content[start:loc[0]+1]))
		start = loc[1]
	}
	if rest := strings.TrimSpace(content[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func truncate(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	return content[:limit] + "..."
}
