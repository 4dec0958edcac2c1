// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is a Go client for the datepoll API and the optimistic
reconciler that drives one participant's votes.

# HTTP Client

	c := client.New("https://datepoll.example", nil)
	poll, err := c.GetPoll(ctx, pollID)

Non-2xx responses come back as *APIError. IsValidation separates 4xx
rejections from transport failures and 500s.

# Local State

LocalState persists the participant identity, the dates voted for, the
none-of-above flag and the last nickname in a Store: MemoryStore, or
SQLiteStore for state that outlives the process.

# Reconciler

	r, err := client.NewReconciler(c, client.NewLocalState(store), pollID)
	err = r.Load(ctx)
	outcome, err := r.ToggleDate(ctx, "2025-01-06", "Ann")

Each toggle is Idle -> Pending -> Idle. Date toggles share one pending
slot and none-of-above has its own; a toggle on a busy track returns
Ignored. The vote cap is checked before any request and raises a warning
that clears itself after a few seconds. Local state is written only after
the server confirms, and Load replaces the cache with the server's view.
*/
package client
