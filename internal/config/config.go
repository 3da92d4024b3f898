// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Market        MarketConfig        `yaml:"market"`
	Collector     CollectorConfig     `yaml:"collector"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// MarketConfig defines marketplace API settings. The session cookies
// authenticate history requests; the API rejects anonymous ones.
type MarketConfig struct {
	BaseURL         string          `yaml:"base_url"`
	SessionID       string          `yaml:"session_id"`
	LoginToken      string          `yaml:"login_token"`
	RequestTimeout  time.Duration   `yaml:"request_timeout"`
	MinRequestDelay time.Duration   `yaml:"min_request_delay"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines the shared request budget. Limits apply per
// collection scope; the daily limit is global.
type RateLimitConfig struct {
	Window           time.Duration `yaml:"window"`
	OverallPerWindow int           `yaml:"overall_per_window"`
	HistoryPerWindow int           `yaml:"history_per_window"`
	CatalogPerWindow int           `yaml:"catalog_per_window"`
	DailyLimit       int           `yaml:"daily_limit"`
	PenaltyBase      time.Duration `yaml:"penalty_base"`
	PenaltyMax       time.Duration `yaml:"penalty_max"`
}

// CollectorConfig defines collection behavior: which collections to
// walk, worker sizing, cadences, and retry policy.
type CollectorConfig struct {
	Collections       []string      `yaml:"collections"`
	Workers           int           `yaml:"workers"`
	QueueCapacity     int           `yaml:"queue_capacity"`
	FreshnessWindow   time.Duration `yaml:"freshness_window"`
	DiscoveryInterval time.Duration `yaml:"discovery_interval"`
	MaxCatalogPages   int           `yaml:"max_catalog_pages"`
	PageSize          int           `yaml:"page_size"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	PauseFile         string        `yaml:"pause_file"`
	StopTimeout       time.Duration `yaml:"stop_timeout"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyMarketDefaults(&cfg.Market)
	applyCollectorDefaults(&cfg.Collector)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyMarketDefaults(m *MarketConfig) {
	if m.BaseURL == "" {
		m.BaseURL = "https://steamcommunity.com/market"
	}
	if m.RequestTimeout == 0 {
		m.RequestTimeout = 10 * time.Second
	}
	if m.MinRequestDelay == 0 {
		m.MinRequestDelay = 5 * time.Second
	}
	applyRateLimitDefaults(&m.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.Window == 0 {
		r.Window = time.Minute
	}
	if r.OverallPerWindow == 0 {
		r.OverallPerWindow = 8
	}
	if r.HistoryPerWindow == 0 {
		r.HistoryPerWindow = 7
	}
	if r.CatalogPerWindow == 0 {
		r.CatalogPerWindow = 1
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 12000
	}
	if r.PenaltyBase == 0 {
		r.PenaltyBase = time.Minute
	}
	if r.PenaltyMax == 0 {
		r.PenaltyMax = 5 * time.Minute
	}
}

func applyCollectorDefaults(c *CollectorConfig) {
	if c.Workers == 0 {
		c.Workers = 3
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 10000
	}
	if c.FreshnessWindow == 0 {
		c.FreshnessWindow = 12 * time.Hour
	}
	if c.DiscoveryInterval == 0 {
		c.DiscoveryInterval = time.Hour
	}
	if c.MaxCatalogPages == 0 {
		c.MaxCatalogPages = 50
	}
	if c.PageSize == 0 {
		c.PageSize = 100
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = time.Minute
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Market.SessionID == "" {
		errs = append(errs, fmt.Errorf("market.session_id is required"))
	}
	if cfg.Market.LoginToken == "" {
		errs = append(errs, fmt.Errorf("market.login_token is required"))
	}

	if len(cfg.Collector.Collections) == 0 {
		errs = append(errs, fmt.Errorf("collector.collections must list at least one collection"))
	}

	r := cfg.Market.RateLimit
	if r.HistoryPerWindow > r.OverallPerWindow {
		errs = append(errs, fmt.Errorf(
			"market.rate_limit.history_per_window (%d) cannot exceed overall_per_window (%d)",
			r.HistoryPerWindow, r.OverallPerWindow,
		))
	}

	return errors.Join(errs...)
}
