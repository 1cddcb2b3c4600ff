// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database access for surveys and responses.

# Drivers

Open selects the driver by type:

	conn, err := db.Open(db.TypePostgres, "postgres://...") // github.com/lib/pq
	conn, err := db.Open(db.TypeSQLite, "survey.db")        // modernc.org/sqlite

Queries are written with ? placeholders and rebound to $n for PostgreSQL.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - survey: title, description, timestamps
  - question: ordered questions per survey, options as JSON
  - response: answers as JSON, salted IP hash, session token, user agent

Timestamps are stored as Unix milliseconds.

# Store

Store wraps a connection with the survey operations used by handlers and
the vote gate. GetSurvey returns ErrNotFound for unknown ids. AddResponse
inserts a response and returns the survey's new total in one transaction.
*/
package db
