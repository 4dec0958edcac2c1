// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the datepoll API.

# Handler Types

Each handler is a struct holding the shared ledger. Only PollHandler
needs the config, for the base URL of the links it hands out:

  - PollHandler: poll creation and secret-gated admin operations
  - VotingHandler: casts, retractions and the none-of-above flag
  - ResultsHandler: tallies, respondents and per-participant state

	l := ledger.New(db, cfg.MaxDays)
	pollHandler := handlers.NewPollHandler(l, cfg)
	votingHandler := handlers.NewVotingHandler(l)

# Admin Errors

An unknown poll or a wrong secret is reported before any problem with
the payload, so admin routes never reveal what a valid request looks
like to a caller without the secret.

# Errors

Ledger sentinel errors map to a status and a stable error code
(see models.Code*). Unknown errors are logged and returned as 500
server_error without detail.

# Admin Counts

PUT /polls/{id}/counts accepts JSON numbers only. A value that is not a
non-negative integer fails the whole batch with invalid_count; nothing is
written.
*/
package handlers
