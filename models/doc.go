// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the JSON request and response types of the API.
Field names are camelCase on the wire.

# Request Types

  - CreatePollRequest: startDate, endDate, message?, maxVotes?
  - UpdateMessageRequest: secret, message
  - UpdateCountsRequest: secret, counts (date → integer)
  - CastVoteRequest: date, participantId, nickname
  - RetractVoteRequest: date, participantId
  - NoneOfAboveRequest: participantId, nickname?

# Response Types

  - CreatePollResponse: pollId, voteUrl, editUrl
  - PollResponse: pollId, message, options, maxVotes, counts, noneOfAboveCount
  - RespondentsResponse: respondents
  - ParticipantResponse: participantId, dates, noneOfAbove
  - UpdateMessageResponse / UpdateCountsResponse / OKResponse: ok plus payload
  - ErrorResponse: error (machine-readable code), message

# Error Codes

	invalid_request, invalid_range, invalid_option, invalid_count,
	invalid_message, invalid_nickname, invalid_participant  → 400
	forbidden                                               → 403
	not_found                                               → 404
	server_error                                            → 500
*/
package models
