package domain

// UnknownDate is the sentinel used when a source provides no parseable
// publication date.
const UnknownDate = "Unknown Date"

// Article is the ephemeral unit flowing through a single pipeline run.
// Fetchers produce it, later stages enrich it; it is never persisted
// as-is.
type Article struct {
	Title         string
	URL           string
	Source        string
	Authors       []string
	PublishedDate string // YYYY-MM-DD or UnknownDate
	Content       string
	DOI           string
	Journal       string

	// Attached by later stages.
	Summary        string
	RelevanceScore float64
	Metrics        Metrics
}

// Metrics holds external quality signals resolved for an article.
// HIndexKnown distinguishes a resolved zero from a lookup that never
// happened.
type Metrics struct {
	Citations   int
	HIndex      int
	HIndexKnown bool
}

// TrackedArticle is the persisted record of a processed article.
type TrackedArticle struct {
	Identity    string
	Title       string
	Source      string
	URL         string
	Summary     string
	ProcessedAt string // ISO-8601
	CreatedAt   string
}

// TrackerStats aggregates the tracking store contents.
type TrackerStats struct {
	Total    int
	BySource map[string]int
	Oldest   string
	Newest   string
}
