// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the datepoll API server.

datepoll schedules a group event: the organizer shares a range of dates,
participants toggle the days that work for them, and everyone sees the
live per-date counts.

# Starting the Server

With no configuration the server uses a local SQLite file:

	go run .

Or against PostgreSQL:

	go run . -t postgres -d "postgres://..."

# Configuration

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): SQLite path or PostgreSQL URL
  - BASE_URL (-base-url): prefix for generated share links
  - MAX_DAYS (-max-days): option-date cap per poll

A .env file in the working directory is loaded if present.

# Architecture

  - handlers: HTTP request handlers (polls, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - ledger: Vote facts, respondents, none-of-above and admin overrides
  - dates: Date range expansion
  - auth: Poll IDs and edit secrets
  - db: Driver selection and schema creation
  - cliparse: Configuration parsing
  - client: Optimistic vote client for front ends and tools

See package documentation for each component.
*/
package main
