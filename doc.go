// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Election Survey API server.

Election Survey collects survey responses, most notably a single-choice party
vote for the 2026 election, and serves aggregated results. Each identity may
vote once per 24-hour cooldown window.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=survey.db IP_SALT=... ADMIN_KEY=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

A .env file in the working directory is loaded first when present.

# Configuration

Required settings:
  - DATABASE_URL (-d): connection string or SQLite file path
  - IP_SALT (--ip-salt): secret for hashing client IPs
  - ADMIN_KEY (--admin-key): key for creating surveys

Optional settings:
  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - VOTE_COOLDOWN_SWEEP (--sweep): ledger sweep interval (default: 10m)
  - LEDGER_MAX_ENTRIES (--ledger-max): cap on tracked identities (default: none)
  - SURVEY_OTEL_ENDPOINT: OTLP/HTTP trace endpoint (default: tracing off)

# Architecture

  - handlers: HTTP request handlers (surveys, responses, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, database guard, JSON helpers
  - gate: server-side vote admission
  - cooldown: per-identity vote ledger
  - identity: client IP resolution and hashing
  - models: Request/response and domain types
  - auth: IDs, tokens, admin key check, IP hashing
  - db: schema and store (PostgreSQL or SQLite)
  - cliparse: Configuration parsing
  - telemetry: optional OpenTelemetry tracing
  - client, cmd/vote: voting client and CLI

See package documentation for each component.
*/
package main
