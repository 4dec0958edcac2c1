// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth generates poll identifiers and edit secrets.

# Poll IDs

Poll IDs are 8 random characters from [a-z0-9]:

	id, err := auth.GeneratePollID()

Handlers reject anything that does not match this shape before touching the
database (see ValidPollID).

# Edit Secrets

Edit secrets are 24 random URL-safe characters, stored with the poll and
handed out once inside the edit URL:

	secret, err := auth.GenerateSecret()
	err = auth.ValidateSecret(stored, presented)

Comparison is constant-time. Secrets must never be logged.
*/
package auth
