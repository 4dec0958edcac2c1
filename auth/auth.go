// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
)

const (
	PollIDLength = 8
	SecretLength = 24

	pollIDChars = "abcdefghijklmnopqrstuvwxyz0123456789"
	secretChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

var ErrInvalidSecret = errors.New("invalid edit secret")

// GeneratePollID creates a random lowercase alphanumeric poll identifier
func GeneratePollID() (string, error) {
	id, err := randomString(pollIDChars, PollIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate poll ID: %w", err)
	}
	return id, nil
}

// GenerateSecret creates the edit secret handed out once in the edit URL
func GenerateSecret() (string, error) {
	s, err := randomString(secretChars, SecretLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate edit secret: %w", err)
	}
	return s, nil
}

// ValidPollID reports whether id has the shape of a generated poll ID.
func ValidPollID(id string) bool {
	if len(id) != PollIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// ValidateSecret compares a presented secret with the stored one in constant time
func ValidateSecret(stored, presented string) error {
	if presented == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return ErrInvalidSecret
	}
	return nil
}

// randomString draws n characters from alphabet without modulo bias.
func randomString(alphabet string, n int) (string, error) {
	cutoff := 256 - (256 % len(alphabet))
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= cutoff {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
