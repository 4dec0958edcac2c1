// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dates

import (
	"errors"
	"math"
	"time"
)

// Layout is the canonical textual form of an option-date.
const Layout = "2006-01-02"

// MaxDays caps both the number of option-dates in a poll and maxVotes.
const MaxDays = 365

var (
	ErrInvalidDate  = errors.New("invalid date format (YYYY-MM-DD)")
	ErrInvalidRange = errors.New("startDate must be on or before endDate")
)

// Parse reads a YYYY-MM-DD string as a UTC calendar date.
// Anything that does not format back to the same string is rejected.
func Parse(s string) (time.Time, error) {
	if len(s) != len(Layout) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if t.Format(Layout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Format renders a date in canonical form using its UTC calendar day.
func Format(t time.Time) string {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(Layout)
}

// Canonical parses and re-formats s, returning the canonical string.
func Canonical(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(t), nil
}

// Expand returns every day from start to end inclusive, truncated to at most
// limit entries. A non-positive limit means MaxDays.
func Expand(start, end time.Time, limit int) ([]string, error) {
	if limit <= 0 || limit > MaxDays {
		limit = MaxDays
	}

	s := civil(start)
	e := civil(end)
	if s.After(e) {
		return nil, ErrInvalidRange
	}

	out := make([]string, 0, min(limit, int(e.Sub(s).Hours()/24)+1))
	for d := s; !d.After(e) && len(out) < limit; d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(Layout))
	}
	return out, nil
}

// ExpandStrings is Expand over canonical date strings.
func ExpandStrings(start, end string, limit int) ([]string, error) {
	s, err := Parse(start)
	if err != nil {
		return nil, err
	}
	e, err := Parse(end)
	if err != nil {
		return nil, err
	}
	return Expand(s, e, limit)
}

// ClampMaxVotes normalizes a requested per-participant vote cap.
// nil stays nil (no cap). Out-of-range input is clamped, never rejected.
func ClampMaxVotes(v *float64) *int {
	if v == nil {
		return nil
	}
	n := MaxDays
	switch {
	case math.IsNaN(*v) || math.IsInf(*v, 1):
	case *v <= 0:
		n = 0
	case *v < MaxDays:
		n = int(math.Floor(*v))
	}
	return &n
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
