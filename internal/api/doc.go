// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the NAVI conversation service.
//
// Every endpoint answers with the same envelope:
//
//	{"isSuccess": true, "code": "COMMON200", "message": "...", "result": {...}}
//
// The client unwraps the envelope, converts wire records into model types,
// and maps failures onto the sentinel errors in errors.go. Listing calls are
// retried with exponential backoff; calls that create or mutate server state
// are sent exactly once.
package api
