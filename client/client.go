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
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/election-survey/cooldown"
	"github.com/danielhkuo/election-survey/models"
)

const userAgent = "election-survey-cli/1"

var (
	ErrAlreadyVoted       = errors.New("already voted in the last 24 hours")
	ErrBackendUnavailable = errors.New("survey backend is unavailable")
	ErrSurveyNotFound     = errors.New("survey not found")
)

// AlreadyVotedError carries the remaining cooldown. It matches ErrAlreadyVoted.
type AlreadyVotedError struct {
	RetryAfter time.Duration
	// Local is true when the profile refused the vote before any request.
	Local bool
}

func (e *AlreadyVotedError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrAlreadyVoted, e.RetryAfter.Round(time.Second))
}

func (e *AlreadyVotedError) Is(target error) bool {
	return target == ErrAlreadyVoted
}

// ValidationError is the server's explanation of a rejected answer set.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid answers: " + e.Message
}

// NetworkError wraps a transport failure talking to the API.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is an unexpected API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// Receipt confirms an accepted vote.
type Receipt struct {
	VotesTotal int
}

// Client submits votes through the local advisory gate.
type Client struct {
	cfg     Config
	http    *http.Client
	clock   cooldown.Clock
	session *Session
	profile *Profile
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithClock(clock cooldown.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: 30 * time.Second},
		clock: cooldown.SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.session = NewSession(cfg.SessionPath)
	c.profile = NewProfile(cfg.ProfilePath, c.clock)
	return c
}

// Profile exposes the local vote record.
func (c *Client) Profile() *Profile {
	return c.profile
}

// Vote checks the local gate, then submits answers. The local vote is
// recorded only after the server accepted it.
func (c *Client) Vote(ctx context.Context, surveyID string, answers []string) (Receipt, error) {
	if !c.profile.MayVote() {
		return Receipt{}, &AlreadyVotedError{RetryAfter: c.profile.RetryAfter(), Local: true}
	}

	if answers == nil {
		answers = []string{}
	}
	payload := struct {
		Answers  []string                `json:"answers"`
		Metadata models.ResponseMetadata `json:"metadata"`
	}{
		Answers: answers,
		Metadata: models.ResponseMetadata{
			SessionToken: c.session.Token(c.clock.Now()),
			ClientIP:     LookupIP(ctx, c.http, c.cfg.IPLookupURL, c.cfg.IPLookupTimeout),
			Timestamp:    c.clock.Now().UTC().Format(time.RFC3339Nano),
			UserAgent:    userAgent,
		},
	}

	var accepted models.SubmitResponseResponse
	if err := c.do(ctx, http.MethodPost, "/surveys/"+url.PathEscape(surveyID)+"/responses", payload, &accepted); err != nil {
		return Receipt{}, err
	}

	if err := c.profile.RecordVote(); err != nil {
		// The server has the vote; only the advisory gate is lost.
		slog.Warn("vote accepted but not recorded locally", "error", err)
	}

	return Receipt{VotesTotal: accepted.VotesTotal}, nil
}

// Survey fetches a survey and its questions.
func (c *Client) Survey(ctx context.Context, surveyID string) (models.Survey, error) {
	var survey models.Survey
	err := c.do(ctx, http.MethodGet, "/surveys/"+url.PathEscape(surveyID), nil, &survey)
	return survey, err
}

// Results fetches aggregated results. Data holds a map of counts for choice
// questions and a list of answers for text questions.
func (c *Client) Results(ctx context.Context, surveyID string) (models.SurveyResults, error) {
	var results models.SurveyResults
	err := c.do(ctx, http.MethodGet, "/surveys/"+url.PathEscape(surveyID)+"/results", nil, &results)
	return results, err
}

// Parties fetches the fixed party list.
func (c *Client) Parties(ctx context.Context) ([]models.Party, error) {
	var parties []models.Party
	err := c.do(ctx, http.MethodGet, "/parties", nil, &parties)
	return parties, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.APIBase, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return statusError(resp, raw)
}

// statusError maps an error response to the client's typed errors.
func statusError(resp *http.Response, raw []byte) error {
	var body struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retryAfter"`
	}
	_ = json.Unmarshal(raw, &body)

	message := body.Message
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		wait := time.Duration(body.RetryAfter) * time.Second
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(secs) * time.Second
		}
		return &AlreadyVotedError{RetryAfter: wait}
	case http.StatusBadRequest:
		return &ValidationError{Message: message}
	case http.StatusNotFound:
		return ErrSurveyNotFound
	case http.StatusServiceUnavailable:
		return ErrBackendUnavailable
	default:
		return &StatusError{Code: resp.StatusCode, Message: message}
	}
}
