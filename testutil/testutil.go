// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielhkuo/datepoll/auth"
	"github.com/danielhkuo/datepoll/cliparse"
	"github.com/danielhkuo/datepoll/db"
)

// SetupTestDB creates a fresh SQLite database in a temp dir with the full schema.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(cliparse.DatabaseSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: cliparse.DatabaseSQLite,
		DatabaseURL:  "test.db",
		BaseURL:      "https://datepoll.test",
		MaxDays:      365,
	}
}

// CreateTestPoll inserts a poll with the given option dates and returns its ID
// and edit secret. maxVotes < 0 means no cap.
func CreateTestPoll(t *testing.T, conn *sql.DB, maxVotes int, options ...string) (pollID, secret string) {
	t.Helper()

	pollID, err := auth.GeneratePollID()
	if err != nil {
		t.Fatalf("Failed to generate poll ID: %v", err)
	}
	secret, err = auth.GenerateSecret()
	if err != nil {
		t.Fatalf("Failed to generate secret: %v", err)
	}

	var maxVotesArg any
	if maxVotes >= 0 {
		maxVotesArg = maxVotes
	}

	_, err = conn.Exec(`
		INSERT INTO poll (id, message, secret, max_votes)
		VALUES ($1, 'Test Poll', $2, $3)
	`, pollID, secret, maxVotesArg)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for i, d := range options {
		_, err := conn.Exec(`
			INSERT INTO poll_option (poll_id, option_date, position)
			VALUES ($1, $2, $3)
		`, pollID, d, i)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}

	return pollID, secret
}

// AddTestVote inserts a vote fact and respondent entry directly
func AddTestVote(t *testing.T, conn *sql.DB, pollID, date, participantID, nickname string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO vote (poll_id, option_date, participant_id)
		VALUES ($1, $2, $3)
	`, pollID, date, participantID)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO respondent (poll_id, participant_id, nickname)
		VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, participant_id) DO UPDATE SET nickname = EXCLUDED.nickname
	`, pollID, participantID, nickname)
	if err != nil {
		t.Fatalf("Failed to create test respondent: %v", err)
	}
}

// CountRows runs a COUNT(*) query and returns the result
func CountRows(t *testing.T, conn *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
