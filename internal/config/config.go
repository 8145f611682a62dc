// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file and env.
// - Policy values (signal weights, significance threshold, sweep cadence) are
//   configuration, never hard-coded in domain packages.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file backing both stores.
	// ":memory:" keeps everything in-process (tests, local runs).
	DBPath string `koanf:"db_path"`

	// SweepIntervalSeconds is the cadence of the expiry sweep. Must be short
	// relative to the smallest response window in use.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`

	// ResponseWindowHours is the default proposal response window applied
	// when a create request carries no explicit deadline.
	ResponseWindowHours int `koanf:"response_window_hours"`

	// SignificanceThreshold is the minimum score delta that triggers a
	// reputation.updated event.
	SignificanceThreshold float64 `koanf:"significance_threshold"`

	// ScoreBaseline is the neutral starting score for recruiters without signals.
	ScoreBaseline float64 `koanf:"score_baseline"`

	// Signal weights for the reputation score.
	HireWeight           float64 `koanf:"hire_weight"`
	CompletionWeight     float64 `koanf:"completion_weight"`
	CollaborationWeight  float64 `koanf:"collaboration_weight"`
	ResponsivenessWeight float64 `koanf:"responsiveness_weight"`

	// DefaultLeaderboardLimit applies when GET /leaderboard omits ?limit.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// PublisherBufferSize bounds the in-memory event buffer.
	PublisherBufferSize int `koanf:"publisher_buffer_size"`

	// PublishMaxRetries and PublishRetryDelayMS shape at-least-once delivery.
	PublishMaxRetries   int `koanf:"publish_max_retries"`
	PublishRetryDelayMS int `koanf:"publish_retry_delay_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":8080",
		DBPath:                  "talentbridge.db",
		SweepIntervalSeconds:    60,
		ResponseWindowHours:     72,
		SignificanceThreshold:   5,
		ScoreBaseline:           50,
		HireWeight:              0.40,
		CompletionWeight:        0.30,
		CollaborationWeight:     0.15,
		ResponsivenessWeight:    0.15,
		DefaultLeaderboardLimit: 10,
		MaxLeaderboardLimit:     100,
		PublisherBufferSize:     1024,
		PublishMaxRetries:       3,
		PublishRetryDelayMS:     100,
	}
}

// SweepInterval returns the sweep cadence as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// ResponseWindow returns the default response window as a duration.
func (c *Config) ResponseWindow() time.Duration {
	return time.Duration(c.ResponseWindowHours) * time.Hour
}

// PublishRetryDelay returns the delivery retry delay as a duration.
func (c *Config) PublishRetryDelay() time.Duration {
	return time.Duration(c.PublishRetryDelayMS) * time.Millisecond
}
