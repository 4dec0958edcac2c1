// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: server listen port (default: 3318)
  - DatabaseType: "sqlite" (default) or "postgres"
  - DatabaseURL: SQLite file path or PostgreSQL connection string
  - BaseURL: prefix for voteUrl and editUrl
  - MaxDays: cap on option-dates per poll (1..365, default 365)

# CLI Flags and Environment

	-p          PORT
	-d          DATABASE_URL
	-t          DATABASE_TYPE
	-base-url   BASE_URL
	-max-days   MAX_DAYS
	-env        ENV_FILE

Values are read from a .env file first (missing file is fine), then the
process environment, then flags. CLI flags take precedence.

# Validation

ParseFlags returns an error when DATABASE_TYPE is unknown, when postgres
is selected without DATABASE_URL, or when MAX_DAYS is out of range.
*/
package cliparse
