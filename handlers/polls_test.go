// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/datepoll/auth"
	"github.com/danielhkuo/datepoll/ledger"
	"github.com/danielhkuo/datepoll/models"
	"github.com/danielhkuo/datepoll/testutil"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestCreatePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(ledger.New(db, cfg.MaxDays), cfg)

	tests := []struct {
		name           string
		requestBody    string
		expectedStatus int
		expectedCode   string
		checkResponse  func(t *testing.T, resp *models.CreatePollResponse)
	}{
		{
			name:           "valid poll creation",
			requestBody:    `{"startDate":"2025-01-06","endDate":"2025-01-08","message":"Team dinner","maxVotes":2}`,
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreatePollResponse) {
				if !auth.ValidPollID(resp.PollID) {
					t.Errorf("Expected a valid poll id, got %q", resp.PollID)
				}
				if resp.VoteURL != cfg.BaseURL+"/#/vote?pollId="+resp.PollID {
					t.Errorf("Unexpected voteUrl: %s", resp.VoteURL)
				}
				if !strings.HasPrefix(resp.EditURL, cfg.BaseURL+"/#/edit?pollId="+resp.PollID+"&secret=") {
					t.Errorf("Unexpected editUrl: %s", resp.EditURL)
				}

				n := testutil.CountRows(t, db, "SELECT COUNT(*) FROM poll_option WHERE poll_id = $1", resp.PollID)
				if n != 3 {
					t.Errorf("Expected 3 options, got %d", n)
				}
			},
		},
		{
			name:           "maxVotes clamped",
			requestBody:    `{"startDate":"2025-01-06","endDate":"2025-01-06","maxVotes":1000}`,
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreatePollResponse) {
				var maxVotes int
				if err := db.QueryRow("SELECT max_votes FROM poll WHERE id = $1", resp.PollID).Scan(&maxVotes); err != nil {
					t.Fatalf("Failed to query poll: %v", err)
				}
				if maxVotes != 365 {
					t.Errorf("Expected maxVotes 365, got %d", maxVotes)
				}
			},
		},
		{
			name:           "null message",
			requestBody:    `{"startDate":"2025-01-06","endDate":"2025-01-06","message":null}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "start after end",
			requestBody:    `{"startDate":"2025-01-08","endDate":"2025-01-06"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeInvalidRange,
		},
		{
			name:           "malformed date",
			requestBody:    `{"startDate":"2025-1-6","endDate":"2025-01-06"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeInvalidRange,
		},
		{
			name:           "missing end date",
			requestBody:    `{"startDate":"2025-01-06"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeInvalidRange,
		},
		{
			name:           "message not a string",
			requestBody:    `{"startDate":"2025-01-06","endDate":"2025-01-06","message":42}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeInvalidMessage,
		},
		{
			name:           "message too long",
			requestBody:    `{"startDate":"2025-01-06","endDate":"2025-01-06","message":"` + strings.Repeat("x", ledger.MaxMessageLength+1) + `"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeInvalidMessage,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/polls", bytes.NewReader([]byte(tt.requestBody)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreatePoll(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedCode != "" {
				if resp := decodeError(t, w); resp.Error != tt.expectedCode {
					t.Errorf("Expected error %q, got %q", tt.expectedCode, resp.Error)
				}
				return
			}

			var resp models.CreatePollResponse
			testutil.AssertJSON(t, w, &resp)
			if tt.checkResponse != nil {
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestGetPollAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(ledger.New(db, cfg.MaxDays), cfg)

	pollID, secret := testutil.CreateTestPoll(t, db, -1, "2025-01-06", "2025-01-07")
	testutil.AddTestVote(t, db, pollID, "2025-01-06", "p1", "Ann")

	tests := []struct {
		name           string
		pollID         string
		secret         string
		expectedStatus int
	}{
		{"correct secret", pollID, secret, http.StatusOK},
		{"wrong secret", pollID, "not-the-secret", http.StatusForbidden},
		{"missing secret", pollID, "", http.StatusForbidden},
		{"unknown poll", "zzzzzzzz", secret, http.StatusNotFound},
		{"malformed poll id", "NOT-AN-ID", secret, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/polls/"+tt.pollID+"/admin?secret="+tt.secret, nil)
			req.SetPathValue("id", tt.pollID)
			w := httptest.NewRecorder()

			handler.GetPollAdmin(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.PollResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Counts["2025-01-06"] != 1 || resp.Counts["2025-01-07"] != 0 {
				t.Errorf("Unexpected counts: %v", resp.Counts)
			}
			if resp.MaxVotes != nil {
				t.Errorf("Expected no cap, got %d", *resp.MaxVotes)
			}
		})
	}
}

func TestUpdateMessage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(ledger.New(db, cfg.MaxDays), cfg)

	pollID, secret := testutil.CreateTestPoll(t, db, -1, "2025-01-06")

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedCode   string
	}{
		{"valid update", `{"secret":"` + secret + `","message":"Moved to Friday"}`, http.StatusOK, ""},
		{"wrong secret", `{"secret":"nope","message":"hijack"}`, http.StatusForbidden, models.CodeForbidden},
		{"not a string", `{"secret":"` + secret + `","message":["a"]}`, http.StatusBadRequest, models.CodeInvalidMessage},
		{"too long", `{"secret":"` + secret + `","message":"` + strings.Repeat("é", ledger.MaxMessageLength+1) + `"}`, http.StatusBadRequest, models.CodeInvalidMessage},
		{"wrong secret beats bad message", `{"secret":"nope","message":42}`, http.StatusForbidden, models.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/polls/"+pollID+"/message", strings.NewReader(tt.body))
			req.SetPathValue("id", pollID)
			w := httptest.NewRecorder()

			handler.UpdateMessage(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedCode != "" {
				if resp := decodeError(t, w); resp.Error != tt.expectedCode {
					t.Errorf("Expected error %q, got %q", tt.expectedCode, resp.Error)
				}
			}
		})
	}

	var message string
	if err := db.QueryRow("SELECT message FROM poll WHERE id = $1", pollID).Scan(&message); err != nil {
		t.Fatalf("Failed to query poll: %v", err)
	}
	if message != "Moved to Friday" {
		t.Errorf("Expected stored message to survive rejected updates, got %q", message)
	}
}

func TestUpdateCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(ledger.New(db, cfg.MaxDays), cfg)

	pollID, secret := testutil.CreateTestPoll(t, db, -1, "2025-01-06", "2025-01-07")

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedCode   string
	}{
		{"unknown date", `{"secret":"` + secret + `","counts":{"2025-01-06":1,"2025-02-01":3}}`, http.StatusBadRequest, models.CodeInvalidOption},
		{"string count", `{"secret":"` + secret + `","counts":{"2025-01-06":"3"}}`, http.StatusBadRequest, models.CodeInvalidCount},
		{"fractional count", `{"secret":"` + secret + `","counts":{"2025-01-06":1.5}}`, http.StatusBadRequest, models.CodeInvalidCount},
		{"negative count", `{"secret":"` + secret + `","counts":{"2025-01-06":-1}}`, http.StatusBadRequest, models.CodeInvalidCount},
		{"null count", `{"secret":"` + secret + `","counts":{"2025-01-06":null}}`, http.StatusBadRequest, models.CodeInvalidCount},
		{"counts missing", `{"secret":"` + secret + `"}`, http.StatusBadRequest, models.CodeInvalidCount},
		{"wrong secret beats bad values", `{"secret":"nope","counts":{"2025-01-06":"x"}}`, http.StatusForbidden, models.CodeForbidden},
		{"wrong secret beats missing counts", `{"secret":"nope"}`, http.StatusForbidden, models.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/polls/"+pollID+"/counts", strings.NewReader(tt.body))
			req.SetPathValue("id", pollID)
			w := httptest.NewRecorder()

			handler.UpdateCounts(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if resp := decodeError(t, w); resp.Error != tt.expectedCode {
				t.Errorf("Expected error %q, got %q", tt.expectedCode, resp.Error)
			}
		})
	}

	if n := testutil.CountRows(t, db, "SELECT COUNT(*) FROM count_override WHERE poll_id = $1", pollID); n != 0 {
		t.Fatalf("Expected rejected batches to write nothing, found %d overrides", n)
	}

	t.Run("valid update", func(t *testing.T) {
		body := `{"secret":"` + secret + `","counts":{"2025-01-07":4}}`
		req := httptest.NewRequest("PUT", "/polls/"+pollID+"/counts", strings.NewReader(body))
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()

		handler.UpdateCounts(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.UpdateCountsResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.OK {
			t.Error("Expected ok=true")
		}
		if resp.Counts["2025-01-07"] != 4 || resp.Counts["2025-01-06"] != 0 {
			t.Errorf("Unexpected counts: %v", resp.Counts)
		}
	})
}

func TestAdminUpdates_UnknownPollBeatsBadPayload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPollHandler(ledger.New(db, cfg.MaxDays), cfg)

	tests := []struct {
		name   string
		path   string
		body   string
		handle http.HandlerFunc
	}{
		{"message not a string", "/polls/zzzzzzzz/message", `{"secret":"s","message":42}`, handler.UpdateMessage},
		{"counts missing", "/polls/zzzzzzzz/counts", `{"secret":"s"}`, handler.UpdateCounts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", tt.path, strings.NewReader(tt.body))
			req.SetPathValue("id", "zzzzzzzz")
			w := httptest.NewRecorder()

			tt.handle(w, req)

			testutil.AssertStatus(t, w, http.StatusNotFound)
			if resp := decodeError(t, w); resp.Error != models.CodeNotFound {
				t.Errorf("Expected error %q, got %q", models.CodeNotFound, resp.Error)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"0", 0},
		{"7", 7},
		{"3.0", 3},
		{"1e2", 100},
		{"2.5", -1},
		{"-4", -1},
		{`"5"`, -1},
		{"true", -1},
		{"null", -1},
		{"1e12", -1},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := parseCount(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("parseCount(%s) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
