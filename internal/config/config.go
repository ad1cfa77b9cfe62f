package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Timeline TimelineConfig `yaml:"timeline"`
	LLM      LLMConfig      `yaml:"llm"`
	Trending TrendingConfig `yaml:"trending"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // e.g. ":9090"; empty disables
}

// FetchConfig configures the refetch scheduler.
type FetchConfig struct {
	// Cooldown is the minimum wait between two refetches of the same
	// account. Guards the rate-limited upstream API.
	Cooldown string `yaml:"cooldown"`
	// AutoInterval is the period of the background fetch-all loop.
	AutoInterval string `yaml:"auto_interval"`
	// PageLimit caps how many tweets one timeline fetch stores.
	PageLimit int `yaml:"page_limit"`
}

// ParseCooldown returns the cooldown as a time.Duration.
func (f FetchConfig) ParseCooldown() time.Duration {
	d, err := time.ParseDuration(f.Cooldown)
	if err != nil {
		return time.Hour
	}
	return d
}

// ParseAutoInterval returns the auto-fetch interval as a time.Duration.
func (f FetchConfig) ParseAutoInterval() time.Duration {
	d, err := time.ParseDuration(f.AutoInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// TimelineConfig configures the upstream timeline scraping API.
type TimelineConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// RPS/Burst pace outgoing calls to the upstream API.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// Nitter enables the RSS fallback provider when the API key is absent.
	Nitter NitterConfig `yaml:"nitter"`
}

// NitterConfig for the RSS fallback timeline provider.
type NitterConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// LLMConfig configures the OpenRouter-compatible endpoint used for
// summarize/translate/sentiment enrichment.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// TrendingConfig configures the trending-tweet search proxy.
type TrendingConfig struct {
	APIKey        string `yaml:"api_key"`
	Host          string `yaml:"host"`
	MinEngagement int    `yaml:"min_engagement"`
	Country       string `yaml:"country"` // "turkey" or "global"
}

// AlertsConfig configures viral-tweet notifications.
type AlertsConfig struct {
	// ViralMinEngagement is the unweighted engagement sum above which a
	// freshly fetched tweet triggers an alert. Zero disables alerting.
	ViralMinEngagement int           `yaml:"viral_min_engagement"`
	Slack              SlackConfig   `yaml:"slack"`
	Discord            DiscordConfig `yaml:"discord"`
	Webhook            WebhookConfig `yaml:"webhook"`
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

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./tweetwatch.db"},
		Server:   ServerConfig{Port: 8080},
		Fetch: FetchConfig{
			Cooldown:     "1h",
			AutoInterval: "5m",
			PageLimit:    100,
		},
		Timeline: TimelineConfig{
			BaseURL: "https://api.twitterapi.io",
			RPS:     2,
			Burst:   5,
			Nitter:  NitterConfig{URL: "https://nitter.net"},
		},
		LLM: LLMConfig{
			BaseURL: "https://openrouter.ai/api",
			Model:   "meta-llama/llama-3.1-8b-instruct:free",
		},
		Trending: TrendingConfig{
			Host:          "twitter-api45.p.rapidapi.com",
			MinEngagement: 1000,
			Country:       "global",
		},
		Alerts: AlertsConfig{},
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
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWEETWATCH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TWITTER_API_KEY"); v != "" {
		cfg.Timeline.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("RAPIDAPI_KEY"); v != "" {
		cfg.Trending.APIKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}
