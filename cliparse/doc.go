// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

The environment is read first with github.com/caarlos0/env, which applies
the envDefault tags. Flags then override individual values.

# CLI Flags

	-p           Server port
	-d           Database URL
	-t           Database type (sqlite, postgres)
	-ip-salt     IP hash salt
	-admin-key   Admin key
	-sweep       Cooldown ledger sweep interval
	-ledger-max  Max identities in the cooldown ledger

# Environment Variables

	PORT                 → -p
	DATABASE_URL         → -d
	DATABASE_TYPE        → -t
	IP_SALT              → -ip-salt
	ADMIN_KEY            → -admin-key
	VOTE_COOLDOWN_SWEEP  → -sweep
	LEDGER_MAX_ENTRIES   → -ledger-max
	SURVEY_OTEL_ENDPOINT (env only)

# Validation

ParseFlags returns an error if:
  - DATABASE_URL is missing
  - DATABASE_TYPE is not sqlite or postgres
  - the sweep interval is not positive
  - IP_SALT or ADMIN_KEY is missing
*/
package cliparse
