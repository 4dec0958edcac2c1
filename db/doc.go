// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the system of record and creates its schema.

# Drivers

Open picks the driver from the configured database type:

  - postgres: github.com/lib/pq
  - sqlite:   modernc.org/sqlite (pure Go, the default)

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite DSNs get foreign_keys, busy_timeout and WAL pragmas unless the
caller already supplies _pragma parameters.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: message, edit secret, optional max_votes
  - poll_option: candidate dates as YYYY-MM-DD text, with display position
  - vote: one row per (poll, date, participant)
  - none_of_above: one row per participant whose flag is set
  - respondent: participant → nickname while the participant is active
  - count_override: admin-written aggregates per date

# Relationships

	poll 1──* poll_option
	poll_option 1──* vote
	poll_option 1──? count_override
	poll 1──* none_of_above
	poll 1──* respondent

All foreign keys use ON DELETE CASCADE.
*/
package db
