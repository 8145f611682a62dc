package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TALENTBRIDGE_CONFIG is set
//  3. env (prefix TALENTBRIDGE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TALENTBRIDGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Environment variables: TALENTBRIDGE_ADDR, TALENTBRIDGE_SWEEP_INTERVAL_SECONDS, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("TALENTBRIDGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "talentbridge_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalid)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalid)
	case c.SweepIntervalSeconds <= 0:
		return fmt.Errorf("%w: sweep_interval_seconds must be positive", ErrInvalid)
	case c.ResponseWindowHours <= 0:
		return fmt.Errorf("%w: response_window_hours must be positive", ErrInvalid)
	case c.SignificanceThreshold < 0:
		return fmt.Errorf("%w: significance_threshold must not be negative", ErrInvalid)
	case c.HireWeight < 0 || c.CompletionWeight < 0 || c.CollaborationWeight < 0 || c.ResponsivenessWeight < 0:
		return fmt.Errorf("%w: signal weights must not be negative", ErrInvalid)
	case c.DefaultLeaderboardLimit < 1 || c.MaxLeaderboardLimit < c.DefaultLeaderboardLimit:
		return fmt.Errorf("%w: leaderboard limits are inconsistent", ErrInvalid)
	case c.PublisherBufferSize < 1:
		return fmt.Errorf("%w: publisher_buffer_size must be positive", ErrInvalid)
	}
	return nil
}
