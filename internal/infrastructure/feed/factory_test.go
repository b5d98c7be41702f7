package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentarch/reading-agent/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestBuildFetchersFromInlineConfig(t *testing.T) {
	t.Parallel()

	sources := []config.SourceConfig{
		{Name: "My Feed", Type: "rss", URL: "https://example.com/feed"},
		{Name: "My API", Type: "api", URL: "https://example.com/api"},
	}

	fetchers := BuildFetchers(sources, nil)
	require.Len(t, fetchers, 2)
	assert.Equal(t, "My Feed", fetchers[0].Name())
	assert.Equal(t, "My API", fetchers[1].Name())
}

func TestBuildFetchersExpandsPresets(t *testing.T) {
	t.Parallel()

	fetchers := BuildFetchers([]config.SourceConfig{{Preset: "arxiv-cs-ai"}}, nil)
	require.Len(t, fetchers, 1)
	assert.Equal(t, "arXiv CS - Artificial Intelligence", fetchers[0].Name())
}

func TestBuildFetchersSkipsDisabledAndUnknown(t *testing.T) {
	t.Parallel()

	sources := []config.SourceConfig{
		{Name: "Off", Type: "rss", URL: "https://example.com", Enabled: boolPtr(false)},
		{Preset: "no-such-preset"},
		{Name: "Weird", Type: "carrier-pigeon", URL: "https://example.com"},
		{Name: "On", Type: "rss", URL: "https://example.com/feed"},
	}

	fetchers := BuildFetchers(sources, nil)
	require.Len(t, fetchers, 1)
	assert.Equal(t, "On", fetchers[0].Name())
}

func TestBuildFetchersDisabledPreset(t *testing.T) {
	t.Parallel()

	sources := []config.SourceConfig{
		{Preset: "arxiv-cs-cv", Enabled: boolPtr(false)},
	}
	assert.Empty(t, BuildFetchers(sources, nil))
}
