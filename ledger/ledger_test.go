// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/danielhkuo/datepoll/testutil"
)

func newTestLedger(t *testing.T) (*Ledger, context.Context) {
	t.Helper()
	return New(testutil.SetupTestDB(t), 365), context.Background()
}

func TestCreatePoll(t *testing.T) {
	l, ctx := newTestLedger(t)

	maxVotes := 2.7
	poll, err := l.CreatePoll(ctx, NewPoll{
		StartDate: "2025-01-06",
		EndDate:   "2025-01-07",
		Message:   "team dinner",
		MaxVotes:  &maxVotes,
	})
	if err != nil {
		t.Fatalf("CreatePoll() error = %v", err)
	}

	if len(poll.ID) != 8 {
		t.Errorf("expected 8-char poll ID, got %q", poll.ID)
	}
	if poll.Secret == "" {
		t.Error("expected edit secret")
	}
	if poll.MaxVotes == nil || *poll.MaxVotes != 2 {
		t.Errorf("expected maxVotes clamped to 2, got %v", poll.MaxVotes)
	}

	view, err := l.GetPoll(ctx, poll.ID)
	if err != nil {
		t.Fatalf("GetPoll() error = %v", err)
	}
	if !reflect.DeepEqual(view.Options, []string{"2025-01-06", "2025-01-07"}) {
		t.Errorf("unexpected options: %v", view.Options)
	}
	if !reflect.DeepEqual(view.Counts, map[string]int{"2025-01-06": 0, "2025-01-07": 0}) {
		t.Errorf("unexpected counts: %v", view.Counts)
	}
	if view.Message != "team dinner" {
		t.Errorf("unexpected message: %q", view.Message)
	}
	if view.MaxVotes == nil || *view.MaxVotes != 2 {
		t.Errorf("expected stored maxVotes 2, got %v", view.MaxVotes)
	}
}

func TestCreatePoll_Errors(t *testing.T) {
	l, ctx := newTestLedger(t)

	tests := []struct {
		name    string
		in      NewPoll
		wantErr error
	}{
		{"start after end", NewPoll{StartDate: "2025-01-07", EndDate: "2025-01-06"}, ErrInvalidRange},
		{"malformed start", NewPoll{StartDate: "2025/01/06", EndDate: "2025-01-06"}, ErrInvalidRange},
		{"message too long", NewPoll{StartDate: "2025-01-06", EndDate: "2025-01-06", Message: strings.Repeat("x", 2001)}, ErrInvalidMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreatePoll(ctx, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if n := testutil.CountRows(t, l.db, "SELECT COUNT(*) FROM poll"); n != 0 {
		t.Errorf("failed creations must not write, found %d polls", n)
	}
}

func TestCreatePoll_NoCap(t *testing.T) {
	l, ctx := newTestLedger(t)

	poll, err := l.CreatePoll(ctx, NewPoll{StartDate: "2025-01-01", EndDate: "2026-12-31"})
	if err != nil {
		t.Fatal(err)
	}
	if poll.MaxVotes != nil {
		t.Errorf("expected no vote cap, got %d", *poll.MaxVotes)
	}
	if len(poll.Options) != 365 {
		t.Errorf("expected options clamped to 365, got %d", len(poll.Options))
	}
}

func TestCastVote_Idempotent(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06", "2025-01-07")

	for i := 0; i < 2; i++ {
		if err := l.CastVote(ctx, pollID, "2025-01-06", "p1", "alice"); err != nil {
			t.Fatalf("CastVote() error = %v", err)
		}
	}

	counts, err := l.Tally(ctx, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if counts["2025-01-06"] != 1 {
		t.Errorf("expected count 1 after casting twice, got %d", counts["2025-01-06"])
	}
	if counts["2025-01-07"] != 0 {
		t.Errorf("expected untouched date to stay 0, got %d", counts["2025-01-07"])
	}
}

func TestCastThenRetract(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06", "2025-01-07")
	testutil.AddTestVote(t, l.db, pollID, "2025-01-06", "other", "bob")

	if err := l.CastVote(ctx, pollID, "2025-01-06", "p1", "alice"); err != nil {
		t.Fatal(err)
	}

	respondents, _ := l.Respondents(ctx, pollID)
	if !reflect.DeepEqual(respondents, []string{"alice", "bob"}) {
		t.Errorf("unexpected respondents after cast: %v", respondents)
	}

	if err := l.RetractVote(ctx, pollID, "2025-01-06", "p1"); err != nil {
		t.Fatal(err)
	}

	counts, _ := l.Tally(ctx, pollID)
	if counts["2025-01-06"] != 1 {
		t.Errorf("expected count back to 1, got %d", counts["2025-01-06"])
	}
	respondents, _ = l.Respondents(ctx, pollID)
	if !reflect.DeepEqual(respondents, []string{"bob"}) {
		t.Errorf("expected alice retired, got %v", respondents)
	}

	// Retracting again is a no-op
	if err := l.RetractVote(ctx, pollID, "2025-01-06", "p1"); err != nil {
		t.Fatal(err)
	}
	counts, _ = l.Tally(ctx, pollID)
	if counts["2025-01-06"] != 1 {
		t.Errorf("second retract changed count to %d", counts["2025-01-06"])
	}
}

func TestRetract_KeepsRespondentWithOtherVotes(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06", "2025-01-07")

	l.CastVote(ctx, pollID, "2025-01-06", "p1", "alice")
	l.CastVote(ctx, pollID, "2025-01-07", "p1", "alice")

	if err := l.RetractVote(ctx, pollID, "2025-01-06", "p1"); err != nil {
		t.Fatal(err)
	}

	respondents, _ := l.Respondents(ctx, pollID)
	if !reflect.DeepEqual(respondents, []string{"alice"}) {
		t.Errorf("respondent with a remaining vote must stay, got %v", respondents)
	}
}

func TestNoneOfAbove_SharesRegistryLifecycle(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06")

	if err := l.SetNoneOfAbove(ctx, pollID, "p1", "  alice  "); err != nil {
		t.Fatal(err)
	}
	if err := l.CastVote(ctx, pollID, "2025-01-06", "p1", "alice"); err != nil {
		t.Fatal(err)
	}

	view, _ := l.GetPoll(ctx, pollID)
	if view.NoneOfAboveCount != 1 {
		t.Errorf("expected none-of-above count 1, got %d", view.NoneOfAboveCount)
	}
	if view.Counts["2025-01-06"] != 1 {
		t.Errorf("none-of-above must not touch date counts, got %d", view.Counts["2025-01-06"])
	}

	// Flag still set: retracting the only vote keeps the entry
	l.RetractVote(ctx, pollID, "2025-01-06", "p1")
	respondents, _ := l.Respondents(ctx, pollID)
	if !reflect.DeepEqual(respondents, []string{"alice"}) {
		t.Errorf("flagged participant must stay registered, got %v", respondents)
	}

	if err := l.ClearNoneOfAbove(ctx, pollID, "p1"); err != nil {
		t.Fatal(err)
	}
	respondents, _ = l.Respondents(ctx, pollID)
	if len(respondents) != 0 {
		t.Errorf("expected empty registry, got %v", respondents)
	}

	n, err := l.NoneOfAboveCount(ctx, pollID)
	if err != nil || n != 0 {
		t.Errorf("expected none-of-above count 0, got %d (%v)", n, err)
	}
}

func TestClearNoneOfAbove_KeepsVoter(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06")

	l.SetNoneOfAbove(ctx, pollID, "p1", "alice")
	l.CastVote(ctx, pollID, "2025-01-06", "p1", "alice")
	l.ClearNoneOfAbove(ctx, pollID, "p1")

	respondents, _ := l.Respondents(ctx, pollID)
	if !reflect.DeepEqual(respondents, []string{"alice"}) {
		t.Errorf("participant with a vote must stay registered, got %v", respondents)
	}
}

func TestRespondents_NicknameHandling(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06", "2025-01-07")

	l.CastVote(ctx, pollID, "2025-01-06", "p1", "zoe")
	l.CastVote(ctx, pollID, "2025-01-06", "p2", "amy")
	l.CastVote(ctx, pollID, "2025-01-06", "p3", "amy")
	// Last nickname wins
	l.CastVote(ctx, pollID, "2025-01-07", "p1", "max")

	respondents, err := l.Respondents(ctx, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(respondents, []string{"amy", "max"}) {
		t.Errorf("expected distinct sorted nicknames, got %v", respondents)
	}
}

func TestParticipant(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06", "2025-01-07", "2025-01-08")

	l.CastVote(ctx, pollID, "2025-01-08", "p1", "alice")
	l.CastVote(ctx, pollID, "2025-01-06", "p1", "alice")
	l.SetNoneOfAbove(ctx, pollID, "p1", "alice")

	state, err := l.Participant(ctx, pollID, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(state.Dates, []string{"2025-01-06", "2025-01-08"}) {
		t.Errorf("unexpected dates: %v", state.Dates)
	}
	if !state.NoneOfAbove {
		t.Error("expected none-of-above flag")
	}

	empty, err := l.Participant(ctx, pollID, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Dates) != 0 || empty.NoneOfAbove {
		t.Errorf("expected empty state, got %+v", empty)
	}
}

func TestVoteErrors(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06")

	tests := []struct {
		name    string
		fn      func() error
		wantErr error
	}{
		{"cast unknown poll", func() error { return l.CastVote(ctx, "zzzzzzzz", "2025-01-06", "p1", "a") }, ErrNotFound},
		{"cast malformed poll id", func() error { return l.CastVote(ctx, "../etc", "2025-01-06", "p1", "a") }, ErrNotFound},
		{"cast date not in poll", func() error { return l.CastVote(ctx, pollID, "2025-01-07", "p1", "a") }, ErrInvalidOption},
		{"cast malformed date", func() error { return l.CastVote(ctx, pollID, "Jan 6", "p1", "a") }, ErrInvalidOption},
		{"cast blank nickname", func() error { return l.CastVote(ctx, pollID, "2025-01-06", "p1", "   ") }, ErrInvalidNickname},
		{"cast long nickname", func() error { return l.CastVote(ctx, pollID, "2025-01-06", "p1", strings.Repeat("n", 51)) }, ErrInvalidNickname},
		{"cast empty participant", func() error { return l.CastVote(ctx, pollID, "2025-01-06", "", "a") }, ErrInvalidParticipant},
		{"cast bad participant chars", func() error { return l.CastVote(ctx, pollID, "2025-01-06", "p 1", "a") }, ErrInvalidParticipant},
		{"retract unknown poll", func() error { return l.RetractVote(ctx, "zzzzzzzz", "2025-01-06", "p1") }, ErrNotFound},
		{"retract date not in poll", func() error { return l.RetractVote(ctx, pollID, "2025-02-01", "p1") }, ErrInvalidOption},
		{"set none-of-above unknown poll", func() error { return l.SetNoneOfAbove(ctx, "zzzzzzzz", "p1", "a") }, ErrNotFound},
		{"set none-of-above without nickname", func() error { return l.SetNoneOfAbove(ctx, pollID, "p1", "") }, ErrInvalidNickname},
		{"clear none-of-above unknown poll", func() error { return l.ClearNoneOfAbove(ctx, "zzzzzzzz", "p1") }, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if n := testutil.CountRows(t, l.db, "SELECT COUNT(*) FROM vote"); n != 0 {
		t.Errorf("rejected calls must not write, found %d votes", n)
	}
	if n := testutil.CountRows(t, l.db, "SELECT COUNT(*) FROM respondent"); n != 0 {
		t.Errorf("rejected calls must not write, found %d respondents", n)
	}
}

func TestTally_UnknownPoll(t *testing.T) {
	l, ctx := newTestLedger(t)

	if _, err := l.Tally(ctx, "abcdefgh"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.Respondents(ctx, "abcdefgh"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentCasts_SameKey(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.CastVote(ctx, pollID, "2025-01-06", "same-participant", "alice")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("CastVote() error = %v", err)
		}
	}

	if got := testutil.CountRows(t, l.db, "SELECT COUNT(*) FROM vote WHERE poll_id = $1", pollID); got != 1 {
		t.Errorf("expected exactly 1 vote fact, got %d", got)
	}
	counts, _ := l.Tally(ctx, pollID)
	if counts["2025-01-06"] != 1 {
		t.Errorf("expected aggregate 1, got %d", counts["2025-01-06"])
	}
}

func TestConcurrentCasts_DifferentParticipants(t *testing.T) {
	l, ctx := newTestLedger(t)
	pollID, _ := testutil.CreateTestPoll(t, l.db, -1, "2025-01-06")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pid := "p" + string(rune('a'+i))
			if err := l.CastVote(ctx, pollID, "2025-01-06", pid, "voter-"+pid); err != nil {
				t.Errorf("CastVote() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	counts, _ := l.Tally(ctx, pollID)
	if counts["2025-01-06"] != n {
		t.Errorf("expected %d votes, got %d", n, counts["2025-01-06"])
	}
}
