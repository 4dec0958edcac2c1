// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/datepoll/ledger"
	"github.com/danielhkuo/datepoll/middleware"
	"github.com/danielhkuo/datepoll/models"
)

type VotingHandler struct {
	ledger *ledger.Ledger
}

func NewVotingHandler(l *ledger.Ledger) *VotingHandler {
	return &VotingHandler{ledger: l}
}

// CastVote handles POST /polls/{id}/vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	err := h.ledger.CastVote(r.Context(), r.PathValue("id"), req.Date, req.ParticipantID, req.Nickname)
	if err != nil {
		writeLedgerError(w, err, "cast vote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// RetractVote handles DELETE /polls/{id}/vote
func (h *VotingHandler) RetractVote(w http.ResponseWriter, r *http.Request) {
	var req models.RetractVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	err := h.ledger.RetractVote(r.Context(), r.PathValue("id"), req.Date, req.ParticipantID)
	if err != nil {
		writeLedgerError(w, err, "retract vote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// SetNoneOfAbove handles POST /polls/{id}/none-of-above
func (h *VotingHandler) SetNoneOfAbove(w http.ResponseWriter, r *http.Request) {
	var req models.NoneOfAboveRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	err := h.ledger.SetNoneOfAbove(r.Context(), r.PathValue("id"), req.ParticipantID, req.Nickname)
	if err != nil {
		writeLedgerError(w, err, "set none-of-above")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// ClearNoneOfAbove handles DELETE /polls/{id}/none-of-above
func (h *VotingHandler) ClearNoneOfAbove(w http.ResponseWriter, r *http.Request) {
	var req models.NoneOfAboveRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	err := h.ledger.ClearNoneOfAbove(r.Context(), r.PathValue("id"), req.ParticipantID)
	if err != nil {
		writeLedgerError(w, err, "clear none-of-above")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}
