// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Validation failures are reported before any write, so none of them leave
// partial state behind.
var (
	ErrInvalidRange       = errors.New("invalid date range")
	ErrInvalidOption      = errors.New("date is not an option of this poll")
	ErrInvalidCount       = errors.New("count must be a non-negative integer")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrInvalidNickname    = errors.New("invalid nickname")
	ErrInvalidParticipant = errors.New("invalid participant id")
	ErrForbidden          = errors.New("edit secret does not match")
	ErrNotFound           = errors.New("poll not found")
)

const (
	MaxMessageLength     = 2000
	MaxNicknameLength    = 50
	MaxParticipantLength = 64
	MaxCount             = 1<<31 - 1
)

// ValidateMessage enforces the message length limit, counted in characters.
func ValidateMessage(message string) error {
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return ErrInvalidMessage
	}
	return nil
}

// NormalizeNickname trims surrounding whitespace and checks the length.
func NormalizeNickname(nickname string) (string, error) {
	n := strings.TrimSpace(nickname)
	if n == "" || utf8.RuneCountInString(n) > MaxNicknameLength {
		return "", ErrInvalidNickname
	}
	return n, nil
}

// ValidateParticipant accepts opaque client tokens made of URL-safe characters.
func ValidateParticipant(id string) error {
	if id == "" || len(id) > MaxParticipantLength {
		return ErrInvalidParticipant
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ErrInvalidParticipant
		}
	}
	return nil
}
