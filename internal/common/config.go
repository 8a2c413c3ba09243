// Package common holds ambient, cross-cutting concerns (config, logging,
// panic-protected goroutines) shared by every other package, mirroring the
// layering the rest of the engine is built on.
package common

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root application configuration, loaded from the TOML file
// named by the -config flag (hubscout.toml by default) with environment-variable and CLI-flag overrides layered on top.
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Crawler     CrawlerConfig  `toml:"crawler"`
	Sequence    SequenceConfig `toml:"sequence"`
	Jobs        JobsConfig     `toml:"jobs"`
	Logging     LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// StorageConfig points at the single relational database file (spec §6:
// "data/news.db by default").
type StorageConfig struct {
	SqlitePath     string `toml:"sqlite_path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// CrawlerConfig carries the fetch/politeness knobs named in spec §4.2/§5.
type CrawlerConfig struct {
	UserAgent        string        `toml:"user_agent"`
	RequestTimeout   time.Duration `toml:"request_timeout"`
	Concurrency      int           `toml:"concurrency"`       // default 2
	RateLimitMs      int           `toml:"rate_limit_ms"`     // min inter-request delay per host
	MaxDownloads     int           `toml:"max_downloads"`     // 0 = unbounded
	PatternsPerPlace int           `toml:"patterns_per_place"` // default 3
	MaxAge           time.Duration `toml:"max_age"`            // default 7d
	Refresh404       time.Duration `toml:"refresh_404"`        // default 180d
	Retry4xx         time.Duration `toml:"retry_4xx"`          // default 7d
	AllowMultiJobs   bool          `toml:"allow_multi_jobs"`
}

// SequenceConfig points at the directory of declarative sequence files.
// CRAWL_CONFIG_PATH overrides Dir at load time.
type SequenceConfig struct {
	Dir string `toml:"dir"`
}

type JobsConfig struct {
	EventBatchThreshold int `toml:"event_batch_threshold"` // not read anywhere; the telemetry bus appends every event individually
}

type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Output     []string `toml:"output"`
	TimeFormat string   `toml:"time_format"`
}

// DefaultConfig returns the baseline configuration applied before any file
// or environment override.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Port: 8080, Host: "0.0.0.0"},
		Storage:     StorageConfig{SqlitePath: "data/news.db"},
		Crawler: CrawlerConfig{
			UserAgent:        "hubscout/1.0 (+https://example.invalid/bot)",
			RequestTimeout:   15 * time.Second,
			Concurrency:      2,
			RateLimitMs:      500,
			MaxDownloads:     0,
			PatternsPerPlace: 3,
			MaxAge:           7 * 24 * time.Hour,
			Refresh404:       180 * 24 * time.Hour,
			Retry4xx:         7 * 24 * time.Hour,
			AllowMultiJobs:   false,
		},
		Sequence: SequenceConfig{Dir: "config/sequences"},
		Jobs:     JobsConfig{EventBatchThreshold: 20},
		Logging:  LoggingConfig{Level: "info", Format: "text", Output: []string{"stdout"}, TimeFormat: "15:04:05.000"},
	}
}

// LoadConfig reads path (if present) over DefaultConfig, then applies the
// CRAWL_CONFIG_PATH environment override for the sequence directory, per
// spec §6.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, nil
			}
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if dir := os.Getenv("CRAWL_CONFIG_PATH"); dir != "" {
		cfg.Sequence.Dir = dir
	}

	return cfg, nil
}
