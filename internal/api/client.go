// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jeranaias/navi-tui/internal/model"
)

// Configuration constants for the NAVI service.
const (
	// DefaultTimeout bounds every request made with the shared HTTP client.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of attempts for idempotent calls.
	DefaultMaxRetries = 3

	// DefaultRequestsPerSecond is the client side rate limit.
	DefaultRequestsPerSecond = 5.0

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second

	userAgent = "navi-tui/0.1.0"
)

// sharedTransport pools connections across every Client.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// Config holds the settings needed to build a Client.
type Config struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Logger            logrus.FieldLogger
}

// Client talks to the NAVI conversation service. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
	log        logrus.FieldLogger
}

// NewClient creates a client. Zero config fields take their defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Transport: sharedTransport, Timeout: timeout},
		maxRetries: retries,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		log:        logger.WithField("component", "api"),
	}
}

// IsConfigured returns true when a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// SESSIONS
// =============================================================================

// ListSessions fetches one page of sessions. A zero cursor requests the
// newest page.
func (c *Client) ListSessions(ctx context.Context, cursor model.PageCursor, size int) (model.SessionPage, error) {
	env, err := c.getWithRetry(ctx, "/sessions", pageQuery(cursor, size))
	if err != nil {
		return model.SessionPage{}, err
	}

	var res sessionListResult
	if err := decodeResult(env, &res); err != nil {
		return model.SessionPage{}, err
	}

	page := model.SessionPage{
		Sessions: make([]model.Session, 0, len(res.Details)),
		HasNext:  res.HasNext,
	}
	for _, d := range res.Details {
		page.Sessions = append(page.Sessions, d.toModel())
	}
	return page, nil
}

// CreateSession starts a session seeded with question and returns its id.
func (c *Client) CreateSession(ctx context.Context, question string) (string, error) {
	env, err := c.doOnce(ctx, http.MethodPost, "/sessions", nil, questionRequest{Question: question})
	if err != nil {
		return "", err
	}
	if !env.succeeded() {
		return "", envelopeError(env)
	}

	var res createSessionResult
	if err := decodeResult(env, &res); err != nil {
		return "", err
	}
	if res.SessionID == "" {
		return "", fmt.Errorf("%w: create session returned no id", ErrInvalidResponse)
	}
	return string(res.SessionID), nil
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	env, err := c.doOnce(ctx, http.MethodPost, "/sessions/delete/"+url.PathEscape(sessionID), nil, nil)
	if err != nil {
		return err
	}
	if !env.succeeded() {
		return envelopeError(env)
	}
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// ListMessages fetches one page of a session's history, newest first.
func (c *Client) ListMessages(ctx context.Context, sessionID string, cursor model.PageCursor, size int) (model.MessagePage, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	env, err := c.getWithRetry(ctx, path, pageQuery(cursor, size))
	if err != nil {
		return model.MessagePage{}, err
	}

	var res messageListResult
	if err := decodeResult(env, &res); err != nil {
		return model.MessagePage{}, err
	}
	return res.toModel(), nil
}

// Send submits a question and returns the raw answer payload, which may be a
// JSON string or an embedded document.
//
// A reply that neither reports success nor carries an answer yields
// ErrInvalidResponse. A reply that carries an answer is used even when the
// success flag is missing. Send is never retried.
func (c *Client) Send(ctx context.Context, sessionID, question string) (json.RawMessage, error) {
	path := "/sessions/" + url.PathEscape(sessionID)
	env, err := c.doOnce(ctx, http.MethodPost, path, nil, questionRequest{Question: question})
	if err != nil {
		return nil, err
	}

	var res sendResult
	if env.hasResult() {
		if err := json.Unmarshal(env.Result, &res); err != nil {
			c.log.WithError(err).Debug("send result not an object")
		}
	}

	answer := res.response()
	switch {
	case answer != nil:
		return answer, nil
	case env.succeeded():
		// Explicit success with nothing attached settles as an empty answer.
		return json.RawMessage(`""`), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, describeEnvelope(env))
	}
}

// =============================================================================
// TRANSPORT
// =============================================================================

// getWithRetry performs an idempotent GET with exponential backoff on
// transient failures.
func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values) (envelope, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return envelope{}, ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		env, err := c.doOnce(ctx, http.MethodGet, path, query, nil)
		if err == nil && !env.succeeded() {
			err = envelopeError(env)
		}
		if err == nil {
			return env, nil
		}
		if !retryable(err) {
			return envelope{}, err
		}
		lastErr = err
		c.log.WithFields(logrus.Fields{"path": path, "attempt": attempt + 1}).WithError(err).Warn("retrying request")
	}
	return envelope{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doOnce performs a single request and decodes the envelope. Non-2xx
// statuses become *Error.
func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body any) (envelope, error) {
	if !c.IsConfigured() {
		return envelope{}, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return envelope{}, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	c.setHeaders(req, requestID, body != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"request_id": requestID,
		"duration":   time.Since(start).String(),
	}).Debug("api request")

	data, err := readResponse(resp)
	if err != nil {
		return envelope{}, err
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		if decodeErr == nil && (env.Code != "" || env.Message != "") {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return envelope{}, apiErr
	}
	if decodeErr != nil {
		return envelope{}, fmt.Errorf("%w: %v", ErrInvalidResponse, decodeErr)
	}
	return env, nil
}

// setHeaders sets the headers shared by every request. The token is never
// logged.
func (c *Client) setHeaders(req *http.Request, requestID string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// readResponse reads the body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return data, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func pageQuery(cursor model.PageCursor, size int) url.Values {
	q := url.Values{}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	if cursor.At != nil {
		q.Set("cursorAt", cursor.At.String())
	}
	if cursor.ID != "" {
		q.Set("cursorId", cursor.ID)
	}
	return q
}

func decodeResult(env envelope, dst any) error {
	if !env.hasResult() {
		return nil
	}
	if err := json.Unmarshal(env.Result, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func envelopeError(env envelope) error {
	msg := env.Message
	if msg == "" {
		msg = "request was not successful"
	}
	return &Error{Status: http.StatusOK, Code: env.Code, Message: msg}
}

func describeEnvelope(env envelope) string {
	switch {
	case env.Code != "" && env.Message != "":
		return env.Code + ": " + env.Message
	case env.Message != "":
		return env.Message
	case env.Code != "":
		return env.Code
	}
	return "no answer payload"
}

func backoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
