package models

import "encoding/json"

// Error codes returned in ErrorResponse.Error
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidRange       = "invalid_range"
	CodeInvalidOption      = "invalid_option"
	CodeInvalidCount       = "invalid_count"
	CodeInvalidMessage     = "invalid_message"
	CodeInvalidNickname    = "invalid_nickname"
	CodeInvalidParticipant = "invalid_participant"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeServerError        = "server_error"
)

// Request types

// Message is kept raw so a non-string value can be reported as
// invalid_message rather than a generic decode failure.
type CreatePollRequest struct {
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Message   json.RawMessage `json:"message,omitempty"`
	MaxVotes  *float64        `json:"maxVotes,omitempty"`
}

type UpdateMessageRequest struct {
	Secret  string          `json:"secret"`
	Message json.RawMessage `json:"message"`
}

// date -> count; values are validated as non-negative integers by the handler
type UpdateCountsRequest struct {
	Secret string                     `json:"secret"`
	Counts map[string]json.RawMessage `json:"counts"`
}

type CastVoteRequest struct {
	Date          string `json:"date"`
	ParticipantID string `json:"participantId"`
	Nickname      string `json:"nickname"`
}

type RetractVoteRequest struct {
	Date          string `json:"date"`
	ParticipantID string `json:"participantId"`
}

type NoneOfAboveRequest struct {
	ParticipantID string `json:"participantId"`
	Nickname      string `json:"nickname,omitempty"`
}

// Response types

type CreatePollResponse struct {
	PollID  string `json:"pollId"`
	VoteURL string `json:"voteUrl"`
	EditURL string `json:"editUrl"`
}

type PollResponse struct {
	PollID           string         `json:"pollId"`
	Message          string         `json:"message"`
	Options          []string       `json:"options"`
	MaxVotes         *int           `json:"maxVotes"`
	Counts           map[string]int `json:"counts"`
	NoneOfAboveCount int            `json:"noneOfAboveCount"`
}

type RespondentsResponse struct {
	Respondents []string `json:"respondents"`
}

type ParticipantResponse struct {
	ParticipantID string   `json:"participantId"`
	Dates         []string `json:"dates"`
	NoneOfAbove   bool     `json:"noneOfAbove"`
}

type UpdateMessageResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type UpdateCountsResponse struct {
	OK     bool           `json:"ok"`
	Counts map[string]int `json:"counts"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
