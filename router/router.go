// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/datepoll/cliparse"
	"github.com/danielhkuo/datepoll/handlers"
	"github.com/danielhkuo/datepoll/ledger"
	"github.com/danielhkuo/datepoll/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	l := ledger.New(db, cfg.MaxDays)
	pollHandler := handlers.NewPollHandler(l, cfg)
	votingHandler := handlers.NewVotingHandler(l)
	resultsHandler := handlers.NewResultsHandler(l)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll management (admin operations)
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls/{id}/admin", middleware.WithLogging(pollHandler.GetPollAdmin))
	mux.HandleFunc("PUT /polls/{id}/message", middleware.WithLogging(pollHandler.UpdateMessage))
	mux.HandleFunc("PUT /polls/{id}/counts", middleware.WithLogging(pollHandler.UpdateCounts))

	// Voting operations (public)
	mux.HandleFunc("POST /polls/{id}/vote", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("DELETE /polls/{id}/vote", middleware.WithLogging(votingHandler.RetractVote))
	mux.HandleFunc("POST /polls/{id}/none-of-above", middleware.WithLogging(votingHandler.SetNoneOfAbove))
	mux.HandleFunc("DELETE /polls/{id}/none-of-above", middleware.WithLogging(votingHandler.ClearNoneOfAbove))

	// Tallies and respondents (public)
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(resultsHandler.GetPoll))
	mux.HandleFunc("GET /polls/{id}/respondents", middleware.WithLogging(resultsHandler.GetRespondents))
	mux.HandleFunc("GET /polls/{id}/participants/{participantId}", middleware.WithLogging(resultsHandler.GetParticipant))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("datepoll API v1"))
	})

	return mux
}
