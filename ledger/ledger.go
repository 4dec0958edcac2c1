// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/datepoll/auth"
	"github.com/danielhkuo/datepoll/dates"
)

// Ledger is the system of record for polls, vote facts, the respondent
// registry, none-of-above flags and admin count overrides. It holds no
// cached poll state; every read goes to the database.
type Ledger struct {
	db      *sql.DB
	maxDays int
}

func New(db *sql.DB, maxDays int) *Ledger {
	if maxDays <= 0 || maxDays > dates.MaxDays {
		maxDays = dates.MaxDays
	}
	return &Ledger{db: db, maxDays: maxDays}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type NewPoll struct {
	StartDate string
	EndDate   string
	Message   string
	MaxVotes  *float64
}

type Poll struct {
	ID       string
	Message  string
	Secret   string
	Options  []string
	MaxVotes *int
}

// PollView is the public read model. Counts holds the aggregate per option
// date: an admin override where one exists, the live vote count otherwise.
type PollView struct {
	ID               string
	Message          string
	Options          []string
	MaxVotes         *int
	Counts           map[string]int
	NoneOfAboveCount int
}

// CreatePoll expands the date range and stores the poll with a fresh ID and
// edit secret.
func (l *Ledger) CreatePoll(ctx context.Context, in NewPoll) (*Poll, error) {
	if err := ValidateMessage(in.Message); err != nil {
		return nil, err
	}

	options, err := dates.ExpandStrings(in.StartDate, in.EndDate, l.maxDays)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return nil, err
	}

	poll := &Poll{
		Message:  in.Message,
		Secret:   secret,
		Options:  options,
		MaxVotes: dates.ClampMaxVotes(in.MaxVotes),
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll.ID, err = unusedPollID(ctx, tx)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, message, secret, max_votes)
		VALUES ($1, $2, $3, $4)
	`, poll.ID, poll.Message, poll.Secret, nullableInt(poll.MaxVotes))
	if err != nil {
		return nil, fmt.Errorf("failed to insert poll: %w", err)
	}

	for i, d := range options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO poll_option (poll_id, option_date, position)
			VALUES ($1, $2, $3)
		`, poll.ID, d, i)
		if err != nil {
			return nil, fmt.Errorf("failed to insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit poll: %w", err)
	}

	slog.Info("poll created", "poll_id", poll.ID, "options", len(options))
	return poll, nil
}

// GetPoll returns the public view of a poll.
func (l *Ledger) GetPoll(ctx context.Context, pollID string) (*PollView, error) {
	poll, err := loadPoll(ctx, l.db, pollID)
	if err != nil {
		return nil, err
	}
	return l.view(ctx, l.db, poll)
}

// GetPollAdmin is GetPoll gated on the edit secret.
func (l *Ledger) GetPollAdmin(ctx context.Context, pollID, secret string) (*PollView, error) {
	poll, err := loadPoll(ctx, l.db, pollID)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidateSecret(poll.Secret, secret); err != nil {
		return nil, ErrForbidden
	}
	return l.view(ctx, l.db, poll)
}

// CheckSecret reports ErrNotFound or ErrForbidden exactly as an admin
// operation on pollID would, without touching the poll.
func (l *Ledger) CheckSecret(ctx context.Context, pollID, secret string) error {
	poll, err := loadPoll(ctx, l.db, pollID)
	if err != nil {
		return err
	}
	if err := auth.ValidateSecret(poll.Secret, secret); err != nil {
		return ErrForbidden
	}
	return nil
}

func (l *Ledger) view(ctx context.Context, q queryer, poll *Poll) (*PollView, error) {
	counts, err := aggregate(ctx, q, poll)
	if err != nil {
		return nil, err
	}

	noa, err := countNoneOfAbove(ctx, q, poll.ID)
	if err != nil {
		return nil, err
	}

	return &PollView{
		ID:               poll.ID,
		Message:          poll.Message,
		Options:          poll.Options,
		MaxVotes:         poll.MaxVotes,
		Counts:           counts,
		NoneOfAboveCount: noa,
	}, nil
}

// loadPoll reads a poll and its ordered options. Malformed IDs are
// reported as ErrNotFound without a query.
func loadPoll(ctx context.Context, q queryer, pollID string) (*Poll, error) {
	if !auth.ValidPollID(pollID) {
		return nil, ErrNotFound
	}

	poll := &Poll{ID: pollID}
	var maxVotes sql.NullInt64
	err := q.QueryRowContext(ctx, `
		SELECT message, secret, max_votes FROM poll WHERE id = $1
	`, pollID).Scan(&poll.Message, &poll.Secret, &maxVotes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query poll: %w", err)
	}
	if maxVotes.Valid {
		n := int(maxVotes.Int64)
		poll.MaxVotes = &n
	}

	rows, err := q.QueryContext(ctx, `
		SELECT option_date FROM poll_option
		WHERE poll_id = $1
		ORDER BY position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	poll.Options = []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		poll.Options = append(poll.Options, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}

	return poll, nil
}

// requireOption checks that the poll exists and that date, once
// canonicalized, is one of its options. It returns the canonical date.
func requireOption(ctx context.Context, q queryer, pollID, date string) (string, error) {
	if err := requirePoll(ctx, q, pollID); err != nil {
		return "", err
	}

	canonical, err := dates.Canonical(date)
	if err != nil {
		return "", ErrInvalidOption
	}

	var ok bool
	err = q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM poll_option WHERE poll_id = $1 AND option_date = $2
		)
	`, pollID, canonical).Scan(&ok)
	if err != nil {
		return "", fmt.Errorf("failed to query option: %w", err)
	}
	if !ok {
		return "", ErrInvalidOption
	}
	return canonical, nil
}

func requirePoll(ctx context.Context, q queryer, pollID string) error {
	if !auth.ValidPollID(pollID) {
		return ErrNotFound
	}
	var ok bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM poll WHERE id = $1)
	`, pollID).Scan(&ok)
	if err != nil {
		return fmt.Errorf("failed to query poll: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func unusedPollID(ctx context.Context, q queryer) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		id, err := auth.GeneratePollID()
		if err != nil {
			return "", err
		}
		var taken bool
		err = q.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM poll WHERE id = $1)
		`, id).Scan(&taken)
		if err != nil {
			return "", fmt.Errorf("failed to check poll ID: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", errors.New("failed to find an unused poll ID")
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return int64(*n)
}
