// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the datepoll API.

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Poll management (admin, edit secret in body or ?secret=):

	POST /polls              - Create poll from a date range
	GET  /polls/{id}/admin   - Poll view gated on the secret
	PUT  /polls/{id}/message - Overwrite the message
	PUT  /polls/{id}/counts  - Overwrite per-date counts

Voting (public):

	POST   /polls/{id}/vote          - Cast a vote for one date
	DELETE /polls/{id}/vote          - Retract a vote
	POST   /polls/{id}/none-of-above - Raise the none-of-above flag
	DELETE /polls/{id}/none-of-above - Lower it

Tallies (public):

	GET /polls/{id}                                - Options, counts, message
	GET /polls/{id}/respondents                    - Nicknames of active participants
	GET /polls/{id}/participants/{participantId}   - One participant's selection

All handlers share a single ledger.Ledger built from the database handle.
*/
package router
