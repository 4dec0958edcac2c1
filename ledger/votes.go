// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"log/slog"
)

// CastVote records that participantID selected date and refreshes their
// respondent entry. Repeating the call is a no-op for the tally.
func (l *Ledger) CastVote(ctx context.Context, pollID, date, participantID, nickname string) error {
	if err := ValidateParticipant(participantID); err != nil {
		return err
	}
	nickname, err := NormalizeNickname(nickname)
	if err != nil {
		return err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	date, err = requireOption(ctx, tx, pollID, date)
	if err != nil {
		return err
	}

	// The primary key makes concurrent casts for one key collapse to one fact.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (poll_id, option_date, participant_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, option_date, participant_id) DO NOTHING
	`, pollID, date, participantID)
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	if err := upsertRespondent(ctx, tx, pollID, participantID, nickname); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vote: %w", err)
	}

	slog.Info("vote cast", "poll_id", pollID, "date", date)
	return nil
}

// RetractVote deletes the vote fact if present and retires the respondent
// entry once the participant is no longer active in the poll.
func (l *Ledger) RetractVote(ctx context.Context, pollID, date, participantID string) error {
	if err := ValidateParticipant(participantID); err != nil {
		return err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	date, err = requireOption(ctx, tx, pollID, date)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM vote
		WHERE poll_id = $1 AND option_date = $2 AND participant_id = $3
	`, pollID, date, participantID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}

	if err := retireIfInactive(ctx, tx, pollID, participantID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit retraction: %w", err)
	}

	slog.Info("vote retracted", "poll_id", pollID, "date", date)
	return nil
}

// Tally counts live vote facts per option date. Options without votes are
// present with a zero count. Admin overrides are not applied here.
func (l *Ledger) Tally(ctx context.Context, pollID string) (map[string]int, error) {
	poll, err := loadPoll(ctx, l.db, pollID)
	if err != nil {
		return nil, err
	}
	return tally(ctx, l.db, poll)
}

func tally(ctx context.Context, q queryer, poll *Poll) (map[string]int, error) {
	counts := make(map[string]int, len(poll.Options))
	for _, d := range poll.Options {
		counts[d] = 0
	}

	rows, err := q.QueryContext(ctx, `
		SELECT option_date, COUNT(*)
		FROM vote
		WHERE poll_id = $1
		GROUP BY option_date
	`, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[d] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vote counts: %w", err)
	}

	return counts, nil
}
