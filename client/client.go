// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielhkuo/datepoll/models"
)

// API is the subset of the wire contract the reconciler drives.
type API interface {
	GetPoll(ctx context.Context, pollID string) (*models.PollResponse, error)
	Respondents(ctx context.Context, pollID string) ([]string, error)
	Participant(ctx context.Context, pollID, participantID string) (*models.ParticipantResponse, error)
	CastVote(ctx context.Context, pollID string, req models.CastVoteRequest) error
	RetractVote(ctx context.Context, pollID string, req models.RetractVoteRequest) error
	SetNoneOfAbove(ctx context.Context, pollID string, req models.NoneOfAboveRequest) error
	ClearNoneOfAbove(ctx context.Context, pollID string, req models.NoneOfAboveRequest) error
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

// IsValidation reports whether err is a 4xx rejection rather than a
// transport failure or server error.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// Client talks JSON over HTTP to a datepoll server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

func (c *Client) CreatePoll(ctx context.Context, req models.CreatePollRequest) (*models.CreatePollResponse, error) {
	var resp models.CreatePollResponse
	if err := c.do(ctx, http.MethodPost, "/polls", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetPoll(ctx context.Context, pollID string) (*models.PollResponse, error) {
	var resp models.PollResponse
	if err := c.do(ctx, http.MethodGet, pollPath(pollID, ""), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetPollAdmin(ctx context.Context, pollID, secret string) (*models.PollResponse, error) {
	var resp models.PollResponse
	path := pollPath(pollID, "/admin") + "?secret=" + url.QueryEscape(secret)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Respondents(ctx context.Context, pollID string) ([]string, error) {
	var resp models.RespondentsResponse
	if err := c.do(ctx, http.MethodGet, pollPath(pollID, "/respondents"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Respondents, nil
}

func (c *Client) Participant(ctx context.Context, pollID, participantID string) (*models.ParticipantResponse, error) {
	var resp models.ParticipantResponse
	path := pollPath(pollID, "/participants/"+url.PathEscape(participantID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CastVote(ctx context.Context, pollID string, req models.CastVoteRequest) error {
	return c.do(ctx, http.MethodPost, pollPath(pollID, "/vote"), req, nil)
}

func (c *Client) RetractVote(ctx context.Context, pollID string, req models.RetractVoteRequest) error {
	return c.do(ctx, http.MethodDelete, pollPath(pollID, "/vote"), req, nil)
}

func (c *Client) SetNoneOfAbove(ctx context.Context, pollID string, req models.NoneOfAboveRequest) error {
	return c.do(ctx, http.MethodPost, pollPath(pollID, "/none-of-above"), req, nil)
}

func (c *Client) ClearNoneOfAbove(ctx context.Context, pollID string, req models.NoneOfAboveRequest) error {
	return c.do(ctx, http.MethodDelete, pollPath(pollID, "/none-of-above"), req, nil)
}

func (c *Client) UpdateMessage(ctx context.Context, pollID, secret, message string) (string, error) {
	raw, err := json.Marshal(message)
	if err != nil {
		return "", err
	}
	var resp models.UpdateMessageResponse
	req := models.UpdateMessageRequest{Secret: secret, Message: raw}
	if err := c.do(ctx, http.MethodPut, pollPath(pollID, "/message"), req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) UpdateCounts(ctx context.Context, pollID, secret string, counts map[string]int) (map[string]int, error) {
	raw := make(map[string]json.RawMessage, len(counts))
	for d, n := range counts {
		raw[d] = json.RawMessage(strconv.Itoa(n))
	}
	var resp models.UpdateCountsResponse
	req := models.UpdateCountsRequest{Secret: secret, Counts: raw}
	if err := c.do(ctx, http.MethodPut, pollPath(pollID, "/counts"), req, &resp); err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, stripQuery(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e models.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		if e.Error == "" {
			e.Error = models.CodeServerError
		}
		return &APIError{Status: resp.StatusCode, Code: e.Error, Message: e.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func pollPath(pollID, suffix string) string {
	return "/polls/" + url.PathEscape(pollID) + suffix
}

// stripQuery keeps secrets out of error strings.
func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
