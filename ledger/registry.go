// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"log/slog"
)

// ParticipantState is what the ledger holds for one participant in a poll.
type ParticipantState struct {
	ParticipantID string
	Dates         []string
	NoneOfAbove   bool
}

// participantActive is the single rule deciding whether a respondent entry
// may exist: at least one vote fact or a none-of-above flag.
const participantActive = `(
	EXISTS (SELECT 1 FROM vote WHERE poll_id = $1 AND participant_id = $2)
	OR EXISTS (SELECT 1 FROM none_of_above WHERE poll_id = $1 AND participant_id = $2)
)`

// SetNoneOfAbove raises the participant's none-of-above flag. For the
// registry it behaves like a cast; no option date is touched.
func (l *Ledger) SetNoneOfAbove(ctx context.Context, pollID, participantID, nickname string) error {
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

	if err := requirePoll(ctx, tx, pollID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO none_of_above (poll_id, participant_id)
		VALUES ($1, $2)
		ON CONFLICT (poll_id, participant_id) DO NOTHING
	`, pollID, participantID)
	if err != nil {
		return fmt.Errorf("failed to set none-of-above: %w", err)
	}

	if err := upsertRespondent(ctx, tx, pollID, participantID, nickname); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit none-of-above: %w", err)
	}

	slog.Info("none-of-above set", "poll_id", pollID)
	return nil
}

// ClearNoneOfAbove lowers the flag and retires the respondent entry if the
// participant holds no votes either.
func (l *Ledger) ClearNoneOfAbove(ctx context.Context, pollID, participantID string) error {
	if err := ValidateParticipant(participantID); err != nil {
		return err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requirePoll(ctx, tx, pollID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM none_of_above WHERE poll_id = $1 AND participant_id = $2
	`, pollID, participantID)
	if err != nil {
		return fmt.Errorf("failed to clear none-of-above: %w", err)
	}

	if err := retireIfInactive(ctx, tx, pollID, participantID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit none-of-above: %w", err)
	}

	slog.Info("none-of-above cleared", "poll_id", pollID)
	return nil
}

// Respondents lists the distinct nicknames of active participants, sorted.
func (l *Ledger) Respondents(ctx context.Context, pollID string) ([]string, error) {
	if err := requirePoll(ctx, l.db, pollID); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT DISTINCT nickname FROM respondent
		WHERE poll_id = $1
		ORDER BY nickname
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query respondents: %w", err)
	}
	defer rows.Close()

	respondents := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan respondent: %w", err)
		}
		respondents = append(respondents, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read respondents: %w", err)
	}

	return respondents, nil
}

// Participant returns the dates a participant voted for, in option order,
// and whether their none-of-above flag is set.
func (l *Ledger) Participant(ctx context.Context, pollID, participantID string) (*ParticipantState, error) {
	if err := ValidateParticipant(participantID); err != nil {
		return nil, err
	}
	if err := requirePoll(ctx, l.db, pollID); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT v.option_date
		FROM vote v
		JOIN poll_option o ON o.poll_id = v.poll_id AND o.option_date = v.option_date
		WHERE v.poll_id = $1 AND v.participant_id = $2
		ORDER BY o.position
	`, pollID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant votes: %w", err)
	}
	defer rows.Close()

	state := &ParticipantState{ParticipantID: participantID, Dates: []string{}}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan participant vote: %w", err)
		}
		state.Dates = append(state.Dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participant votes: %w", err)
	}

	err = l.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM none_of_above WHERE poll_id = $1 AND participant_id = $2
		)
	`, pollID, participantID).Scan(&state.NoneOfAbove)
	if err != nil {
		return nil, fmt.Errorf("failed to query none-of-above: %w", err)
	}

	return state, nil
}

// NoneOfAboveCount returns how many participants have the flag set.
func (l *Ledger) NoneOfAboveCount(ctx context.Context, pollID string) (int, error) {
	if err := requirePoll(ctx, l.db, pollID); err != nil {
		return 0, err
	}
	return countNoneOfAbove(ctx, l.db, pollID)
}

func countNoneOfAbove(ctx context.Context, q queryer, pollID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM none_of_above WHERE poll_id = $1
	`, pollID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count none-of-above flags: %w", err)
	}
	return n, nil
}

// Last nickname wins.
func upsertRespondent(ctx context.Context, q queryer, pollID, participantID, nickname string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO respondent (poll_id, participant_id, nickname)
		VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, participant_id)
		DO UPDATE SET nickname = EXCLUDED.nickname, updated_at = CURRENT_TIMESTAMP
	`, pollID, participantID, nickname)
	if err != nil {
		return fmt.Errorf("failed to upsert respondent: %w", err)
	}
	return nil
}

func retireIfInactive(ctx context.Context, q queryer, pollID, participantID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM respondent
		WHERE poll_id = $1 AND participant_id = $2
		AND NOT `+participantActive, pollID, participantID)
	if err != nil {
		return fmt.Errorf("failed to retire respondent: %w", err)
	}
	return nil
}
