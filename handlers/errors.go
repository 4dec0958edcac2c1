// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/danielhkuo/datepoll/ledger"
	"github.com/danielhkuo/datepoll/middleware"
	"github.com/danielhkuo/datepoll/models"
)

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{ledger.ErrNotFound, http.StatusNotFound, models.CodeNotFound},
	{ledger.ErrForbidden, http.StatusForbidden, models.CodeForbidden},
	{ledger.ErrInvalidRange, http.StatusBadRequest, models.CodeInvalidRange},
	{ledger.ErrInvalidOption, http.StatusBadRequest, models.CodeInvalidOption},
	{ledger.ErrInvalidCount, http.StatusBadRequest, models.CodeInvalidCount},
	{ledger.ErrInvalidMessage, http.StatusBadRequest, models.CodeInvalidMessage},
	{ledger.ErrInvalidNickname, http.StatusBadRequest, models.CodeInvalidNickname},
	{ledger.ErrInvalidParticipant, http.StatusBadRequest, models.CodeInvalidParticipant},
}

// writeLedgerError maps ledger errors to status codes. Anything unknown is
// a storage failure: logged here, reported as an opaque server error.
func writeLedgerError(w http.ResponseWriter, err error, action string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			middleware.ErrorResponse(w, e.status, e.code, err.Error())
			return
		}
	}
	slog.Error("failed to "+action, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, models.CodeServerError, "Database error")
}

func invalidJSON(w http.ResponseWriter) {
	middleware.ErrorResponse(w, http.StatusBadRequest, models.CodeInvalidRequest, "Invalid JSON")
}

// decodeMessage accepts a JSON string or an absent/null value (empty message).
func decodeMessage(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", ledger.ErrInvalidMessage
	}
	return s, nil
}

// decodeCounts converts wire counts to ints. Values that are not
// non-negative integers become -1 so the ledger rejects them with
// ErrInvalidCount after its secret and option checks.
func decodeCounts(raw map[string]json.RawMessage) map[string]int {
	counts := make(map[string]int, len(raw))
	for d, v := range raw {
		counts[d] = parseCount(v)
	}
	return counts
}

func parseCount(raw json.RawMessage) int {
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return -1
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > ledger.MaxCount {
		return -1
	}
	return int(f)
}
