// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are portable between PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    message TEXT NOT NULL DEFAULT '',
    secret TEXT NOT NULL,
    max_votes INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Candidate dates, stored as canonical YYYY-MM-DD text
CREATE TABLE IF NOT EXISTS poll_option (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    option_date TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (poll_id, option_date)
);

-- Vote facts: at most one per (poll, date, participant)
CREATE TABLE IF NOT EXISTS vote (
    poll_id TEXT NOT NULL,
    option_date TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (poll_id, option_date, participant_id),
    FOREIGN KEY (poll_id, option_date) REFERENCES poll_option(poll_id, option_date) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_vote_participant ON vote(poll_id, participant_id);

-- None-of-above flags: a row means the flag is set
CREATE TABLE IF NOT EXISTS none_of_above (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (poll_id, participant_id)
);

-- Respondent registry
CREATE TABLE IF NOT EXISTS respondent (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL,
    nickname TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (poll_id, participant_id)
);

-- Admin-written aggregates; these win over live vote counts on read
CREATE TABLE IF NOT EXISTS count_override (
    poll_id TEXT NOT NULL,
    option_date TEXT NOT NULL,
    count INTEGER NOT NULL CHECK (count >= 0),
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (poll_id, option_date),
    FOREIGN KEY (poll_id, option_date) REFERENCES poll_option(poll_id, option_date) ON DELETE CASCADE
);
`
