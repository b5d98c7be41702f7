package feed

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mentarch/reading-agent/internal/config"
	"github.com/mentarch/reading-agent/internal/ports"
)

// presets maps catalog names to ready-made source configurations so
// common feeds can be referenced by name instead of URL.
var presets = map[string]config.SourceConfig{
	"arxiv-cs-ai": {
		Name: "arXiv CS - Artificial Intelligence",
		Type: "rss",
		URL:  "https://rss.arxiv.org/rss/cs.AI",
	},
	"arxiv-cs-cv": {
		Name: "arXiv CS - Computer Vision",
		Type: "rss",
		URL:  "https://rss.arxiv.org/rss/cs.CV",
	},
	"arxiv-cs-lg": {
		Name: "arXiv CS - Machine Learning",
		Type: "rss",
		URL:  "https://rss.arxiv.org/rss/cs.LG",
	},
	"arxiv-cs-cl": {
		Name: "arXiv CS - Computation & Language",
		Type: "rss",
		URL:  "https://rss.arxiv.org/rss/cs.CL",
	},
	"arxiv-cs-ro": {
		Name: "arXiv CS - Robotics",
		Type: "rss",
		URL:  "https://rss.arxiv.org/rss/cs.RO",
	},
	"pubmed-trending": {
		Name: "PubMed Trending",
		Type: "rss",
		URL:  "https://pubmed.ncbi.nlm.nih.gov/rss/search/trending/",
	},
}

// BuildFetchers turns source configurations into fetcher instances.
// Disabled sources are skipped, unknown presets and types are logged
// and dropped; a misconfigured source never blocks the rest.
func BuildFetchers(sources []config.SourceConfig, logger *slog.Logger) []ports.Fetcher {
	var fetchers []ports.Fetcher

	for _, source := range sources {
		resolved, err := expandPreset(source)
		if err != nil {
			if logger != nil {
				logger.Error("skipping source", "error", err)
			}
			continue
		}
		if !resolved.IsEnabled() {
			if logger != nil {
				logger.Info("skipping disabled source", "source", resolved.Name)
			}
			continue
		}

		switch strings.ToLower(resolved.Type) {
		case "rss":
			fetchers = append(fetchers, NewRSSFetcher(resolved.Name, resolved.URL, nil,
				componentLogger(logger, "fetcher.rss")))
		case "api":
			fetchers = append(fetchers, NewAPIFetcher(resolved.Name, resolved.URL, resolved.Headers, nil,
				componentLogger(logger, "fetcher.api")))
		default:
			if logger != nil {
				logger.Error("unknown source type", "type", resolved.Type, "source", resolved.Name)
			}
		}
	}

	if logger != nil {
		logger.Info("built fetchers", "count", len(fetchers))
	}
	return fetchers
}

// expandPreset replaces a preset reference with its catalog entry,
// keeping any explicit enabled flag from the reference.
func expandPreset(source config.SourceConfig) (config.SourceConfig, error) {
	if source.Preset == "" {
		return source, nil
	}

	resolved, ok := presets[source.Preset]
	if !ok {
		return config.SourceConfig{}, fmt.Errorf("unknown source preset %q", source.Preset)
	}
	resolved.Enabled = source.Enabled
	return resolved, nil
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With("component", component)
}
