// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Browser BrowserConfig `mapstructure:"browser"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Model   ModelConfig   `mapstructure:"model"`
	Storage StorageConfig `mapstructure:"storage"`
	Events  EventsConfig  `mapstructure:"events"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CacheConfig selects and tunes the report cache backend.
type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
	TTLDays int    `mapstructure:"ttl_days"`
}

// BrowserConfig governs the headless acquisition session.
type BrowserConfig struct {
	NavTimeoutSec int     `mapstructure:"nav_timeout_seconds"`
	SettleMs      int     `mapstructure:"settle_ms"`
	UserAgent     string  `mapstructure:"user_agent"`
	TextLimit     int     `mapstructure:"text_limit"`
	HostQPS       float64 `mapstructure:"host_qps"`
}

// ArchiveConfig tunes snapshot resolution for blocked pages.
type ArchiveConfig struct {
	TimeoutSec int               `mapstructure:"timeout_seconds"`
	Mirrors    map[string]string `mapstructure:"mirrors"`
}

// ModelConfig configures the model invoker and its retry budget.
type ModelConfig struct {
	Primary           string `mapstructure:"primary"`
	Fallback          string `mapstructure:"fallback"`
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	AttemptTimeoutSec int    `mapstructure:"attempt_timeout_seconds"`
	RetryAttempts     int    `mapstructure:"retry_attempts"`
	BackoffInitialMs  int    `mapstructure:"backoff_initial_ms"`
	MaxTokens         int    `mapstructure:"max_tokens"`
}

// StorageConfig selects the raw-text blob archive backend.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// EventsConfig configures the report-created event publisher.
type EventsConfig struct {
	Backend   string `mapstructure:"backend"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MEDIALENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_days", 30)
	v.SetDefault("browser.nav_timeout_seconds", 30)
	v.SetDefault("browser.settle_ms", 2000)
	v.SetDefault("browser.user_agent", "medialens-bot/0.1")
	v.SetDefault("browser.text_limit", 30000)
	v.SetDefault("browser.host_qps", 0)
	v.SetDefault("archive.timeout_seconds", 10)
	v.SetDefault("model.primary", "gpt-4o")
	v.SetDefault("model.fallback", "gpt-4o-mini")
	v.SetDefault("model.attempt_timeout_seconds", 45)
	v.SetDefault("model.retry_attempts", 3)
	v.SetDefault("model.backoff_initial_ms", 600)
	v.SetDefault("model.max_tokens", 4096)
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.prefix", "raw")
	v.SetDefault("events.backend", "memory")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Cache.Backend {
	case "memory":
	case "postgres":
		if c.Cache.DSN == "" {
			return fmt.Errorf("cache.dsn must be set when cache.backend is postgres")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or postgres")
	}
	if c.Cache.TTLDays <= 0 {
		return fmt.Errorf("cache.ttl_days must be > 0")
	}
	if c.Browser.NavTimeoutSec <= 0 {
		return fmt.Errorf("browser.nav_timeout_seconds must be > 0")
	}
	if c.Browser.TextLimit <= 0 {
		return fmt.Errorf("browser.text_limit must be > 0")
	}
	if c.Model.Primary == "" {
		return fmt.Errorf("model.primary must be set")
	}
	if c.Model.RetryAttempts <= 0 {
		return fmt.Errorf("model.retry_attempts must be > 0")
	}
	if c.Storage.Backend == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.backend is gcs")
	}
	if c.Events.Backend == "pubsub" && (c.Events.ProjectID == "" || c.Events.Topic == "") {
		return fmt.Errorf("events.project_id and events.topic must be set when events.backend is pubsub")
	}
	return nil
}

// CacheTTL converts the configured TTL into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLDays) * 24 * time.Hour
}
