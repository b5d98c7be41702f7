// Package config loads the application configuration from YAML with
// environment overrides. Missing files and bad values fall back to
// defaults with a logged warning; configuration problems reduce scope,
// they never abort startup.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "CONFIG_PATH"
	openAIKeyEnv     = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	storagePathEnv   = "STORAGE_PATH"
	smtpServerEnv    = "EMAIL_SMTP_SERVER"
	smtpUsernameEnv  = "EMAIL_USERNAME"
	smtpPasswordEnv  = "EMAIL_PASSWORD"
	emailFromEnv     = "EMAIL_FROM"
	emailToEnv       = "EMAIL_TO"
	defaultConfigLoc = "config.yaml"
)

// Config holds all settings consumed across the application.
type Config struct {
	App     AppConfig      `yaml:"app"`
	Topics  []string       `yaml:"topics"`
	Sources []SourceConfig `yaml:"sources"`
	Quality QualityConfig  `yaml:"quality_filter"`
	OpenAI  OpenAIConfig   `yaml:"openai"`
	Email   EmailConfig    `yaml:"email"`
}

// AppConfig covers the pipeline-wide knobs.
type AppConfig struct {
	StoragePath           string `yaml:"storage_path"`
	TrackingRetentionDays *int   `yaml:"tracking_retention_days"`
	MaxArticlesToProcess  int    `yaml:"max_articles_to_process"`
	UpdateFrequency       string `yaml:"update_frequency"`
	LogLevel              string `yaml:"log_level"`
	RankByRelevance       *bool  `yaml:"rank_by_relevance"`
	FetchTimeoutSeconds   int    `yaml:"fetch_timeout_seconds"`
}

// RetentionDays defaults to 30 when the key is omitted. An explicit 0
// (or negative) disables the retention sweep, so absence and zero must
// stay distinguishable.
func (a AppConfig) RetentionDays() int {
	if a.TrackingRetentionDays == nil {
		return 30
	}
	return *a.TrackingRetentionDays
}

// RankingEnabled defaults to true when the flag is omitted.
func (a AppConfig) RankingEnabled() bool {
	return a.RankByRelevance == nil || *a.RankByRelevance
}

// FetchTimeout resolves the per-source fetch deadline.
func (a AppConfig) FetchTimeout() time.Duration {
	if a.FetchTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.FetchTimeoutSeconds) * time.Second
}

// SourceConfig describes one article source, either inline or as a
// preset reference resolved from the built-in catalog.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Preset  string            `yaml:"preset"`
	Headers map[string]string `yaml:"headers"`
	Enabled *bool             `yaml:"enabled"`
}

// IsEnabled defaults to true when the flag is omitted.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// QualityConfig holds the citation-metrics admission thresholds;
// zero disables a threshold.
type QualityConfig struct {
	MinCitations int `yaml:"min_citations"`
	MinHIndex    int `yaml:"min_h_index"`
}

// OpenAIConfig defines how to reach the summarization API.
type OpenAIConfig struct {
	Endpoint         string `yaml:"endpoint"`
	Model            string `yaml:"model"`
	APIKey           string `yaml:"api_key"`
	MaxSummaryTokens int    `yaml:"max_summary_tokens"`
}

// EmailConfig wires the digest delivery channel.
type EmailConfig struct {
	SMTPServer          string   `yaml:"smtp_server"`
	SMTPPort            int      `yaml:"smtp_port"`
	Username            string   `yaml:"username"`
	Password            string   `yaml:"password"`
	From                string   `yaml:"from"`
	To                  []string `yaml:"to"`
	SubjectPrefix       string   `yaml:"subject_prefix"`
	Format              string   `yaml:"format"`
	IncludeLinks        *bool    `yaml:"include_links"`
	MaxArticlesPerEmail int      `yaml:"max_articles_per_email"`
}

// LinksEnabled defaults to true when the flag is omitted.
func (e EmailConfig) LinksEnabled() bool {
	return e.IncludeLinks == nil || *e.IncludeLinks
}

// Load reads the YAML configuration (if present) and applies .env and
// environment overrides.
func Load() Config {
	// Ignore a missing .env; explicit environment always wins anyway.
	_ = godotenv.Load()

	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultConfigLoc
	}

	if raw, err := os.ReadFile(path); err != nil {
		log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
	} else {
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storagePathEnv); v != "" {
		c.App.StoragePath = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(smtpServerEnv); v != "" {
		c.Email.SMTPServer = v
	}
	if v := os.Getenv(smtpUsernameEnv); v != "" {
		c.Email.Username = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv(emailFromEnv); v != "" {
		c.Email.From = v
	}
	if v := os.Getenv(emailToEnv); v != "" {
		c.Email.To = []string{v}
	}
}

func mergeConfig(base, override Config) Config {
	if override.App.StoragePath != "" {
		base.App.StoragePath = override.App.StoragePath
	}
	if override.App.TrackingRetentionDays != nil {
		base.App.TrackingRetentionDays = override.App.TrackingRetentionDays
	}
	if override.App.MaxArticlesToProcess != 0 {
		base.App.MaxArticlesToProcess = override.App.MaxArticlesToProcess
	}
	if override.App.UpdateFrequency != "" {
		base.App.UpdateFrequency = override.App.UpdateFrequency
	}
	if override.App.LogLevel != "" {
		base.App.LogLevel = override.App.LogLevel
	}
	if override.App.FetchTimeoutSeconds != 0 {
		base.App.FetchTimeoutSeconds = override.App.FetchTimeoutSeconds
	}
	if override.App.RankByRelevance != nil {
		base.App.RankByRelevance = override.App.RankByRelevance
	}

	if len(override.Topics) > 0 {
		base.Topics = override.Topics
	}
	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	if override.Quality.MinCitations != 0 {
		base.Quality.MinCitations = override.Quality.MinCitations
	}
	if override.Quality.MinHIndex != 0 {
		base.Quality.MinHIndex = override.Quality.MinHIndex
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.MaxSummaryTokens != 0 {
		base.OpenAI.MaxSummaryTokens = override.OpenAI.MaxSummaryTokens
	}

	if override.Email.SMTPServer != "" {
		base.Email.SMTPServer = override.Email.SMTPServer
	}
	if override.Email.SMTPPort != 0 {
		base.Email.SMTPPort = override.Email.SMTPPort
	}
	if override.Email.Username != "" {
		base.Email.Username = override.Email.Username
	}
	if override.Email.Password != "" {
		base.Email.Password = override.Email.Password
	}
	if override.Email.From != "" {
		base.Email.From = override.Email.From
	}
	if len(override.Email.To) > 0 {
		base.Email.To = override.Email.To
	}
	if override.Email.SubjectPrefix != "" {
		base.Email.SubjectPrefix = override.Email.SubjectPrefix
	}
	if override.Email.Format != "" {
		base.Email.Format = override.Email.Format
	}
	if override.Email.IncludeLinks != nil {
		base.Email.IncludeLinks = override.Email.IncludeLinks
	}
	if override.Email.MaxArticlesPerEmail != 0 {
		base.Email.MaxArticlesPerEmail = override.Email.MaxArticlesPerEmail
	}

	return base
}

func defaultConfig() Config {
	return Config{
		App: AppConfig{
			StoragePath:          "./data",
			MaxArticlesToProcess: 5,
			UpdateFrequency:      "6h",
			LogLevel:             "info",
			FetchTimeoutSeconds:  60,
		},
		OpenAI: OpenAIConfig{
			Endpoint:         "https://api.openai.com/v1/chat/completions",
			Model:            "gpt-4o-mini",
			MaxSummaryTokens: 150,
		},
		Email: EmailConfig{
			SMTPPort:            587,
			SubjectPrefix:       "[Research Update]",
			Format:              "html",
			MaxArticlesPerEmail: 5,
		},
	}
}
