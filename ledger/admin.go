// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/datepoll/auth"
	"github.com/danielhkuo/datepoll/dates"
)

// OverwriteCounts replaces the visible aggregate for each given date.
// Vote facts are not touched, and dates left out of counts keep whatever
// they had. The batch is validated in full before anything is written.
func (l *Ledger) OverwriteCounts(ctx context.Context, pollID, secret string, counts map[string]int) (map[string]int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll, err := loadPoll(ctx, tx, pollID)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidateSecret(poll.Secret, secret); err != nil {
		return nil, ErrForbidden
	}

	allowed := make(map[string]bool, len(poll.Options))
	for _, d := range poll.Options {
		allowed[d] = true
	}

	canonical := make(map[string]int, len(counts))
	for d, n := range counts {
		c, err := dates.Canonical(d)
		if err != nil || !allowed[c] {
			return nil, ErrInvalidOption
		}
		canonical[c] = n
	}
	for _, n := range canonical {
		if n < 0 || n > MaxCount {
			return nil, ErrInvalidCount
		}
	}

	for d, n := range canonical {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO count_override (poll_id, option_date, count)
			VALUES ($1, $2, $3)
			ON CONFLICT (poll_id, option_date)
			DO UPDATE SET count = EXCLUDED.count, updated_at = CURRENT_TIMESTAMP
		`, pollID, d, n)
		if err != nil {
			return nil, fmt.Errorf("failed to write count override: %w", err)
		}
	}

	updated, err := aggregate(ctx, tx, poll)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit count overrides: %w", err)
	}

	slog.Info("counts overwritten", "poll_id", pollID, "dates", len(canonical))
	return updated, nil
}

// OverwriteMessage replaces the poll message.
func (l *Ledger) OverwriteMessage(ctx context.Context, pollID, secret, message string) (string, error) {
	poll, err := loadPoll(ctx, l.db, pollID)
	if err != nil {
		return "", err
	}
	if err := auth.ValidateSecret(poll.Secret, secret); err != nil {
		return "", ErrForbidden
	}
	if err := ValidateMessage(message); err != nil {
		return "", err
	}

	_, err = l.db.ExecContext(ctx, `
		UPDATE poll SET message = $1 WHERE id = $2
	`, message, pollID)
	if err != nil {
		return "", fmt.Errorf("failed to update message: %w", err)
	}

	slog.Info("message updated", "poll_id", pollID)
	return message, nil
}

// aggregate is the read-side count per date: the override if one was
// written, the live vote count otherwise. The two are never reconciled.
func aggregate(ctx context.Context, q queryer, poll *Poll) (map[string]int, error) {
	counts, err := tally(ctx, q, poll)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT option_date, count FROM count_override WHERE poll_id = $1
	`, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query count overrides: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count override: %w", err)
		}
		counts[d] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read count overrides: %w", err)
	}

	return counts, nil
}
