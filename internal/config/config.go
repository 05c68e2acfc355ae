package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Brands    BrandsConfig    `yaml:"brands"`
	Sources   SourcesConfig   `yaml:"sources"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Server    ServerConfig    `yaml:"server"`
	LogLevel  string          `yaml:"log_level"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SentimentConfig configures the classifier.
type SentimentConfig struct {
	Backend           string  `yaml:"backend"` // "lexicon", "openai", "anthropic" or "off"
	PositiveThreshold float64 `yaml:"positive_threshold"`
	NegativeThreshold float64 `yaml:"negative_threshold"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"` // custom endpoint (optional)
}

// PipelineConfig configures batch ingestion.
type PipelineConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// BrandsConfig lists the tracked brand names.
type BrandsConfig struct {
	Tracked []string `yaml:"tracked"`
}

// SourcesConfig holds configuration for all post producers.
type SourcesConfig struct {
	Nitter  NitterConfig  `yaml:"nitter"`
	Archive ArchiveConfig `yaml:"archive"`
}

// NitterConfig for the Nitter RSS collector.
type NitterConfig struct {
	Enabled  bool     `yaml:"enabled"`
	URL      string   `yaml:"url"`
	Accounts []string `yaml:"accounts"`
}

// ArchiveConfig for the JSON Lines archive reader.
type ArchiveConfig struct {
	Enabled bool     `yaml:"enabled"`
	Globs   []string `yaml:"globs"`
}

// ScheduleConfig configures ingestion and sentiment-watch intervals.
type ScheduleConfig struct {
	IngestInterval string `yaml:"ingest_interval"`
	WatchInterval  string `yaml:"watch_interval"`
}

// ParseIngestInterval returns the ingest interval as time.Duration.
func (s ScheduleConfig) ParseIngestInterval() time.Duration {
	d, err := time.ParseDuration(s.IngestInterval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// ParseWatchInterval returns the sentiment-watch interval as time.Duration.
func (s ScheduleConfig) ParseWatchInterval() time.Duration {
	d, err := time.ParseDuration(s.WatchInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// AlertsConfig configures alert destinations and trigger thresholds.
type AlertsConfig struct {
	Slack         SlackConfig   `yaml:"slack"`
	Discord       DiscordConfig `yaml:"discord"`
	Webhook       WebhookConfig `yaml:"webhook"`
	NegativeShare float64       `yaml:"negative_share"`
	MinPosts      int           `yaml:"min_posts"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./brandpulse.db"},
		Sentiment: SentimentConfig{
			Backend:           "lexicon",
			PositiveThreshold: 0.1,
			NegativeThreshold: -0.1,
		},
		Pipeline: PipelineConfig{BatchSize: 100},
		Brands: BrandsConfig{
			Tracked: []string{"Tesla", "Netflix", "Starbucks", "Apple", "Google"},
		},
		Sources: SourcesConfig{
			Nitter: NitterConfig{
				Enabled: false,
				URL:     "https://nitter.net",
			},
			Archive: ArchiveConfig{
				Enabled: true,
				Globs:   []string{"./data/*.jsonl"},
			},
		},
		Schedule: ScheduleConfig{
			IngestInterval: "15m",
			WatchInterval:  "1h",
		},
		Alerts: AlertsConfig{
			NegativeShare: 0.6,
			MinPosts:      5,
		},
		Server:   ServerConfig{Port: 8080},
		LogLevel: "info",
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Sentiment.Backend {
	case "lexicon", "openai", "anthropic", "off":
	default:
		return fmt.Errorf("unsupported sentiment backend %q", c.Sentiment.Backend)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BRANDPULSE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SENTIMENT_THRESHOLD_POSITIVE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sentiment.PositiveThreshold = f
		}
	}
	if v := os.Getenv("SENTIMENT_THRESHOLD_NEGATIVE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sentiment.NegativeThreshold = f
		}
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.BatchSize = n
		}
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Sentiment.APIKey = v
		if cfg.Sentiment.Backend == "lexicon" {
			cfg.Sentiment.Backend = "openai"
		}
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Sentiment.APIKey = v
		if cfg.Sentiment.Backend == "lexicon" {
			cfg.Sentiment.Backend = "anthropic"
		}
	}
}
