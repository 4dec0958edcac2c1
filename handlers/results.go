// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/datepoll/ledger"
	"github.com/danielhkuo/datepoll/middleware"
	"github.com/danielhkuo/datepoll/models"
)

type ResultsHandler struct {
	ledger *ledger.Ledger
}

func NewResultsHandler(l *ledger.Ledger) *ResultsHandler {
	return &ResultsHandler{ledger: l}
}

// GetPoll handles GET /polls/{id}
// Counts are re-derived from storage on every request.
func (h *ResultsHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	view, err := h.ledger.GetPoll(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err, "load poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, pollResponse(view))
}

// GetRespondents handles GET /polls/{id}/respondents
func (h *ResultsHandler) GetRespondents(w http.ResponseWriter, r *http.Request) {
	respondents, err := h.ledger.Respondents(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err, "load respondents")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RespondentsResponse{
		Respondents: respondents,
	})
}

// GetParticipant handles GET /polls/{id}/participants/{participantId}
// Clients use it to overwrite their cached selection with server truth.
func (h *ResultsHandler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	state, err := h.ledger.Participant(r.Context(), r.PathValue("id"), r.PathValue("participantId"))
	if err != nil {
		writeLedgerError(w, err, "load participant")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ParticipantResponse{
		ParticipantID: state.ParticipantID,
		Dates:         state.Dates,
		NoneOfAbove:   state.NoneOfAbove,
	})
}
