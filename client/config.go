// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds client settings, read from the environment.
type Config struct {
	APIBase         string        `env:"SURVEY_API_BASE" envDefault:"http://localhost:3318"`
	ProfilePath     string        `env:"SURVEY_PROFILE"`
	SessionPath     string        `env:"SURVEY_SESSION"`
	IPLookupURL     string        `env:"IP_LOOKUP_URL" envDefault:"https://api.ipify.org?format=json"`
	IPLookupTimeout time.Duration `env:"IP_LOOKUP_TIMEOUT" envDefault:"3s"`
}

// LoadConfig parses the environment and fills in default file locations.
// The profile outlives the session; the session file sits in the temp dir.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.ProfilePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.ProfilePath = filepath.Join(dir, "election-survey", "profile.json")
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = filepath.Join(os.TempDir(), "election-survey", "session")
	}
	if cfg.IPLookupTimeout <= 0 {
		return Config{}, fmt.Errorf("IP_LOOKUP_TIMEOUT must be positive, got %s", cfg.IPLookupTimeout)
	}

	return cfg, nil
}
