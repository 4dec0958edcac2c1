// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/datepoll/models"
)

// DefaultWarningDuration is how long the vote-cap warning stays up.
const DefaultWarningDuration = 3 * time.Second

// Outcome describes what a toggle call did.
type Outcome int

const (
	// Ignored: another action on the same track was still pending.
	Ignored Outcome = iota
	// CapReached: the vote cap is full; the warning was raised, nothing was sent.
	CapReached
	// NicknameRequired: no nickname was available; nothing was sent.
	NicknameRequired
	Cast
	Retracted
	NoneOfAboveSet
	NoneOfAboveCleared
	// Failed: the server call failed and local state is unchanged.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case CapReached:
		return "cap_reached"
	case NicknameRequired:
		return "nickname_required"
	case Cast:
		return "cast"
	case Retracted:
		return "retracted"
	case NoneOfAboveSet:
		return "none_of_above_set"
	case NoneOfAboveCleared:
		return "none_of_above_cleared"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// View is a snapshot of what a participant's screen shows.
type View struct {
	PollID           string
	ParticipantID    string
	EditSecret       string
	Message          string
	Options          []string
	MaxVotes         *int
	Counts           map[string]int
	NoneOfAboveCount int
	Respondents      []string

	Voted       []string
	NoneOfAbove bool

	PendingDate        string
	NoneOfAbovePending bool
	Warning            bool
}

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

func WithWarningDuration(d time.Duration) Option {
	return func(r *Reconciler) { r.warningDuration = d }
}

// Reconciler applies one participant's vote and none-of-above toggles to
// the server and keeps a local view in step with it.
//
// Date toggles share a single pending slot, as do none-of-above toggles;
// the two tracks are independent. A toggle requested while its track is
// pending is dropped. Local state changes only after the server confirms.
type Reconciler struct {
	api             API
	state           *LocalState
	pollID          string
	participantID   string
	editSecret      string
	logger          *slog.Logger
	warningDuration time.Duration
	warning         *DelayedAction

	mu                 sync.Mutex
	message            string
	options            []string
	maxVotes           *int
	counts             map[string]int
	noneOfAboveCount   int
	respondents        []string
	voted              []string
	noneOfAbove        bool
	datePending        bool
	pendingDate        string
	noneOfAbovePending bool
}

func NewReconciler(api API, state *LocalState, pollID string, opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		api:             api,
		state:           state,
		pollID:          pollID,
		logger:          slog.Default(),
		warningDuration: DefaultWarningDuration,
		counts:          map[string]int{},
		respondents:     []string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.warning = NewDelayedAction(r.warningDuration, nil)

	var err error
	if r.participantID, err = state.ParticipantID(pollID); err != nil {
		return nil, fmt.Errorf("failed to load participant id: %w", err)
	}
	if r.voted, err = state.VotedDates(pollID); err != nil {
		return nil, fmt.Errorf("failed to load voted dates: %w", err)
	}
	if r.noneOfAbove, err = state.NoneOfAbove(pollID); err != nil {
		return nil, fmt.Errorf("failed to load none-of-above flag: %w", err)
	}
	if r.editSecret, err = state.Secret(pollID); err != nil {
		return nil, fmt.Errorf("failed to load edit secret: %w", err)
	}

	return r, nil
}

// Load fetches the poll and this participant's server-side selection and
// overwrites the local cache with it.
func (r *Reconciler) Load(ctx context.Context) error {
	poll, err := r.api.GetPoll(ctx, r.pollID)
	if err != nil {
		return fmt.Errorf("failed to load poll: %w", err)
	}
	mine, err := r.api.Participant(ctx, r.pollID, r.participantID)
	if err != nil {
		return fmt.Errorf("failed to load participant: %w", err)
	}

	r.mu.Lock()
	r.message = poll.Message
	r.options = poll.Options
	r.maxVotes = poll.MaxVotes
	r.counts = poll.Counts
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.noneOfAboveCount = poll.NoneOfAboveCount
	r.voted = slices.Clone(mine.Dates)
	r.noneOfAbove = mine.NoneOfAbove
	voted, noa := slices.Clone(r.voted), r.noneOfAbove
	r.mu.Unlock()

	r.persist(func() error { return r.state.SetVotedDates(r.pollID, voted) })
	r.persist(func() error { return r.state.SetNoneOfAbove(r.pollID, noa) })

	r.refreshRespondents(ctx)
	return nil
}

// ToggleDate casts a vote for date, or retracts it if already selected.
// nickname falls back to the last one saved; it is only needed to cast.
// The returned error is non-nil only with Failed.
func (r *Reconciler) ToggleDate(ctx context.Context, date, nickname string) (Outcome, error) {
	r.mu.Lock()
	if r.datePending {
		r.mu.Unlock()
		return Ignored, nil
	}

	selected := slices.Contains(r.voted, date)
	if !selected {
		if r.maxVotes != nil && len(r.voted) >= *r.maxVotes {
			r.mu.Unlock()
			r.warning.Trigger()
			r.logger.Warn("vote cap reached", "poll_id", r.pollID, "max_votes", *r.maxVotes)
			return CapReached, nil
		}
		nickname = r.resolveNickname(nickname)
		if nickname == "" {
			r.mu.Unlock()
			return NicknameRequired, nil
		}
	}
	r.datePending = true
	r.pendingDate = date
	r.mu.Unlock()

	var err error
	if selected {
		err = r.api.RetractVote(ctx, r.pollID, models.RetractVoteRequest{
			Date:          date,
			ParticipantID: r.participantID,
		})
	} else {
		err = r.api.CastVote(ctx, r.pollID, models.CastVoteRequest{
			Date:          date,
			ParticipantID: r.participantID,
			Nickname:      nickname,
		})
	}

	r.mu.Lock()
	r.datePending = false
	r.pendingDate = ""
	if err != nil {
		r.mu.Unlock()
		r.logFailure(err, "vote toggle failed", "date", date)
		return Failed, err
	}

	// A Load that landed while the call was in flight may already reflect it.
	outcome := Cast
	present := slices.Contains(r.voted, date)
	if selected {
		outcome = Retracted
		if present {
			r.voted = slices.DeleteFunc(r.voted, func(d string) bool { return d == date })
			r.counts[date] = max(0, r.counts[date]-1)
		}
	} else if !present {
		r.voted = append(r.voted, date)
		r.counts[date]++
	}
	voted := slices.Clone(r.voted)
	r.mu.Unlock()

	r.persist(func() error { return r.state.SetVotedDates(r.pollID, voted) })
	if outcome == Cast {
		r.persist(func() error { return r.state.SetLastNickname(nickname) })
	}

	r.refreshRespondents(ctx)
	return outcome, nil
}

// ToggleNoneOfAbove raises or lowers this participant's none-of-above
// flag. Raising it needs a nickname, as with ToggleDate.
func (r *Reconciler) ToggleNoneOfAbove(ctx context.Context, nickname string) (Outcome, error) {
	r.mu.Lock()
	if r.noneOfAbovePending {
		r.mu.Unlock()
		return Ignored, nil
	}

	raise := !r.noneOfAbove
	if raise {
		nickname = r.resolveNickname(nickname)
		if nickname == "" {
			r.mu.Unlock()
			return NicknameRequired, nil
		}
	}
	r.noneOfAbovePending = true
	r.mu.Unlock()

	var err error
	if raise {
		err = r.api.SetNoneOfAbove(ctx, r.pollID, models.NoneOfAboveRequest{
			ParticipantID: r.participantID,
			Nickname:      nickname,
		})
	} else {
		err = r.api.ClearNoneOfAbove(ctx, r.pollID, models.NoneOfAboveRequest{
			ParticipantID: r.participantID,
		})
	}

	r.mu.Lock()
	r.noneOfAbovePending = false
	if err != nil {
		r.mu.Unlock()
		r.logFailure(err, "none-of-above toggle failed")
		return Failed, err
	}

	outcome := NoneOfAboveSet
	if !raise {
		outcome = NoneOfAboveCleared
	}
	if r.noneOfAbove != raise {
		r.noneOfAbove = raise
		if raise {
			r.noneOfAboveCount++
		} else {
			r.noneOfAboveCount = max(0, r.noneOfAboveCount-1)
		}
	}
	r.mu.Unlock()

	r.persist(func() error { return r.state.SetNoneOfAbove(r.pollID, raise) })
	if raise {
		r.persist(func() error { return r.state.SetLastNickname(nickname) })
	}

	r.refreshRespondents(ctx)
	return outcome, nil
}

// View returns a copy of the current state.
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxVotes *int
	if r.maxVotes != nil {
		n := *r.maxVotes
		maxVotes = &n
	}

	voted := slices.Clone(r.voted)
	if len(r.options) > 0 {
		slices.SortStableFunc(voted, func(a, b string) int {
			return slices.Index(r.options, a) - slices.Index(r.options, b)
		})
	}

	counts := make(map[string]int, len(r.counts))
	for d, n := range r.counts {
		counts[d] = n
	}

	return View{
		PollID:             r.pollID,
		ParticipantID:      r.participantID,
		EditSecret:         r.editSecret,
		Message:            r.message,
		Options:            slices.Clone(r.options),
		MaxVotes:           maxVotes,
		Counts:             counts,
		NoneOfAboveCount:   r.noneOfAboveCount,
		Respondents:        slices.Clone(r.respondents),
		Voted:              voted,
		NoneOfAbove:        r.noneOfAbove,
		PendingDate:        r.pendingDate,
		NoneOfAbovePending: r.noneOfAbovePending,
		Warning:            r.warning.Active(),
	}
}

func (r *Reconciler) WarningActive() bool {
	return r.warning.Active()
}

// Reset clears transient UI state: the cap warning.
func (r *Reconciler) Reset() {
	r.warning.Cancel()
}

// resolveNickname trims the given nickname, falling back to the saved one.
// Called with r.mu held.
func (r *Reconciler) resolveNickname(nickname string) string {
	if n := strings.TrimSpace(nickname); n != "" {
		return n
	}
	saved, err := r.state.LastNickname()
	if err != nil {
		r.logger.Error("failed to read saved nickname", "error", err)
		return ""
	}
	return strings.TrimSpace(saved)
}

func (r *Reconciler) refreshRespondents(ctx context.Context) {
	respondents, err := r.api.Respondents(ctx, r.pollID)
	if err != nil {
		r.logFailure(err, "failed to refresh respondents")
		return
	}
	if respondents == nil {
		respondents = []string{}
	}

	r.mu.Lock()
	r.respondents = respondents
	r.mu.Unlock()
}

func (r *Reconciler) persist(write func() error) {
	if err := write(); err != nil {
		r.logger.Error("failed to save local state", "poll_id", r.pollID, "error", err)
	}
}

// logFailure logs rejections at Warn and transport or server failures at
// Error.
func (r *Reconciler) logFailure(err error, msg string, args ...any) {
	args = append([]any{"poll_id", r.pollID, "error", err}, args...)
	var apiErr *APIError
	if IsValidation(err) {
		r.logger.Warn(msg, args...)
		return
	}
	if errors.As(err, &apiErr) {
		args = append(args, "status", apiErr.Status)
	}
	r.logger.Error(msg, args...)
}
