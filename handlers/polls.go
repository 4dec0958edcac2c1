// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/url"

	"github.com/danielhkuo/datepoll/cliparse"
	"github.com/danielhkuo/datepoll/ledger"
	"github.com/danielhkuo/datepoll/middleware"
	"github.com/danielhkuo/datepoll/models"
)

type PollHandler struct {
	ledger *ledger.Ledger
	cfg    cliparse.Config
}

func NewPollHandler(l *ledger.Ledger, cfg cliparse.Config) *PollHandler {
	return &PollHandler{ledger: l, cfg: cfg}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	if req.StartDate == "" || req.EndDate == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.CodeInvalidRange, "startDate and endDate are required")
		return
	}

	message, err := decodeMessage(req.Message)
	if err != nil {
		writeLedgerError(w, err, "create poll")
		return
	}

	poll, err := h.ledger.CreatePoll(r.Context(), ledger.NewPoll{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Message:   message,
		MaxVotes:  req.MaxVotes,
	})
	if err != nil {
		writeLedgerError(w, err, "create poll")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:  poll.ID,
		VoteURL: h.cfg.BaseURL + "/#/vote?pollId=" + poll.ID,
		EditURL: h.cfg.BaseURL + "/#/edit?pollId=" + poll.ID + "&secret=" + url.QueryEscape(poll.Secret),
	})
}

// GetPollAdmin handles GET /polls/{id}/admin?secret=
func (h *PollHandler) GetPollAdmin(w http.ResponseWriter, r *http.Request) {
	view, err := h.ledger.GetPollAdmin(r.Context(), r.PathValue("id"), r.URL.Query().Get("secret"))
	if err != nil {
		writeLedgerError(w, err, "load poll for admin")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, pollResponse(view))
}

// UpdateMessage handles PUT /polls/{id}/message
func (h *PollHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateMessageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	message, err := decodeMessage(req.Message)
	if err != nil {
		// Unknown poll and bad secret outrank a malformed message.
		if authErr := h.ledger.CheckSecret(r.Context(), r.PathValue("id"), req.Secret); authErr != nil {
			err = authErr
		}
		writeLedgerError(w, err, "update message")
		return
	}

	message, err = h.ledger.OverwriteMessage(r.Context(), r.PathValue("id"), req.Secret, message)
	if err != nil {
		writeLedgerError(w, err, "update message")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UpdateMessageResponse{
		OK:      true,
		Message: message,
	})
}

// UpdateCounts handles PUT /polls/{id}/counts
func (h *PollHandler) UpdateCounts(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCountsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	if req.Counts == nil {
		if err := h.ledger.CheckSecret(r.Context(), r.PathValue("id"), req.Secret); err != nil {
			writeLedgerError(w, err, "update counts")
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, models.CodeInvalidCount, "counts must be an object")
		return
	}

	counts, err := h.ledger.OverwriteCounts(r.Context(), r.PathValue("id"), req.Secret, decodeCounts(req.Counts))
	if err != nil {
		writeLedgerError(w, err, "update counts")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UpdateCountsResponse{
		OK:     true,
		Counts: counts,
	})
}

func pollResponse(v *ledger.PollView) models.PollResponse {
	return models.PollResponse{
		PollID:           v.ID,
		Message:          v.Message,
		Options:          v.Options,
		MaxVotes:         v.MaxVotes,
		Counts:           v.Counts,
		NoneOfAboveCount: v.NoneOfAboveCount,
	}
}
