package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/danielhkuo/election-survey/db"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"3318"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	IPSalt       string `env:"IP_SALT"`
	AdminKey     string `env:"ADMIN_KEY"`

	SweepInterval    time.Duration `env:"VOTE_COOLDOWN_SWEEP" envDefault:"10m"`
	LedgerMaxEntries int           `env:"LEDGER_MAX_ENTRIES" envDefault:"0"`

	OTelEndpoint string `env:"SURVEY_OTEL_ENDPOINT"`
}

// ParseFlags reads the environment, then lets flags override it
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("election-survey", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.IPSalt, "ip-salt", cfg.IPSalt, "IP hash salt (prefer env)")
	fs.StringVar(&cfg.AdminKey, "admin-key", cfg.AdminKey, "Admin key for survey creation (prefer env)")

	fs.DurationVar(&cfg.SweepInterval, "sweep", cfg.SweepInterval, "Cooldown ledger sweep interval")
	fs.IntVar(&cfg.LedgerMaxEntries, "ledger-max", cfg.LedgerMaxEntries, "Max identities tracked by the cooldown ledger (0 = no cap)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType != db.TypeSQLite && cfg.DatabaseType != db.TypePostgres {
		return Config{}, fmt.Errorf("database type must be sqlite or postgres, got %q", cfg.DatabaseType)
	}
	if cfg.SweepInterval <= 0 {
		return Config{}, errors.New("sweep interval must be positive")
	}

	// Secrets - MUST be provided
	if cfg.IPSalt == "" {
		return Config{}, errors.New("IP_SALT required")
	}
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	return cfg, nil
}
