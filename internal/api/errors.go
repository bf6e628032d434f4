// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Sentinel errors for API operations.
var (
	// ErrNotConfigured is returned when no base URL was supplied.
	ErrNotConfigured = errors.New("api client not configured: set server.base_url")

	// ErrInvalidResponse is returned when a send reply carries neither a
	// success indicator nor an answer payload.
	ErrInvalidResponse = errors.New("invalid response from server")

	// ErrUnauthorized is returned on 401/403.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound is returned on 404.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned on 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// Error is a failure reported by the service, either through a non-2xx
// status or an envelope with isSuccess=false.
type Error struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("navi api error (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("navi api error (%d): %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto sentinel errors so callers can use
// errors.Is without inspecting the status code.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// retryable reports whether a failed listing call should be attempted again.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	// Transport failures such as a refused or dropped connection. Caller
	// cancellation was ruled out above.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
