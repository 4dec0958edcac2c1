// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/danielhkuo/datepoll/models"
	"github.com/google/uuid"
)

const lastNicknameKey = "last-nickname"

func participantKey(pollID string) string { return "user:" + pollID }
func votedKey(pollID string) string       { return "voted:" + pollID }
func noneOfAboveKey(pollID string) string { return "noa:" + pollID }
func secretKey(pollID string) string      { return "secret:" + pollID }

var ErrNoSecret = errors.New("edit link carries no secret")

// LocalState is the client's persisted view: which dates it voted for,
// its none-of-above flag, its participant identity per poll, the edit
// secret of polls it created and the last nickname used. It is a
// rendering hint; the server is authoritative.
type LocalState struct {
	store Store
}

func NewLocalState(store Store) *LocalState {
	return &LocalState{store: store}
}

// ParticipantID returns this client's identity for pollID, creating and
// saving a new random one on first use.
func (s *LocalState) ParticipantID(pollID string) (string, error) {
	id, ok, err := s.store.Get(participantKey(pollID))
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := s.store.Set(participantKey(pollID), id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *LocalState) LastNickname() (string, error) {
	v, _, err := s.store.Get(lastNicknameKey)
	return v, err
}

func (s *LocalState) SetLastNickname(nickname string) error {
	return s.store.Set(lastNicknameKey, nickname)
}

// VotedDates returns the cached selection. A corrupt entry reads as empty.
func (s *LocalState) VotedDates(pollID string) ([]string, error) {
	v, ok, err := s.store.Get(votedKey(pollID))
	if err != nil {
		return nil, err
	}
	var dates []string
	if !ok || json.Unmarshal([]byte(v), &dates) != nil {
		return []string{}, nil
	}
	return dates, nil
}

func (s *LocalState) SetVotedDates(pollID string, dates []string) error {
	if dates == nil {
		dates = []string{}
	}
	b, err := json.Marshal(dates)
	if err != nil {
		return fmt.Errorf("failed to encode voted dates: %w", err)
	}
	return s.store.Set(votedKey(pollID), string(b))
}

func (s *LocalState) NoneOfAbove(pollID string) (bool, error) {
	v, _, err := s.store.Get(noneOfAboveKey(pollID))
	return v == "true", err
}

func (s *LocalState) SetNoneOfAbove(pollID string, active bool) error {
	v := "false"
	if active {
		v = "true"
	}
	return s.store.Set(noneOfAboveKey(pollID), v)
}

// Secret returns the saved edit secret for pollID, or "" if this client
// did not create the poll.
func (s *LocalState) Secret(pollID string) (string, error) {
	v, _, err := s.store.Get(secretKey(pollID))
	return v, err
}

func (s *LocalState) SetSecret(pollID, secret string) error {
	return s.store.Set(secretKey(pollID), secret)
}

// SaveCreatedPoll keeps the edit secret handed back when a poll is created
// so the creator can reach the admin view again later.
func (s *LocalState) SaveCreatedPoll(resp *models.CreatePollResponse) error {
	secret, err := EditSecret(resp.EditURL)
	if err != nil {
		return err
	}
	return s.SetSecret(resp.PollID, secret)
}

// EditSecret pulls the secret out of an edit link of the form
// "<base>/#/edit?pollId=<id>&secret=<secret>".
func EditSecret(editURL string) (string, error) {
	u, err := url.Parse(editURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse edit link: %w", err)
	}
	_, query, _ := strings.Cut(u.EscapedFragment(), "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", fmt.Errorf("failed to parse edit link query: %w", err)
	}
	secret := values.Get("secret")
	if secret == "" {
		return "", ErrNoSecret
	}
	return secret, nil
}
