// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"encoding/json"
)

// =============================================================================
// PAGES RETURNED BY THE REMOTE SERVICE
// =============================================================================

// SessionPage is one page of the session listing.
type SessionPage struct {
	Sessions []Session
	HasNext  bool
}

// RawMessage is a message as listed by the service, before its answer has
// been classified. Answer may hold plain text or an embedded JSON document.
type RawMessage struct {
	MemberMessageID int64
	SessionID       string
	CreatedAt       Timestamp
	LastActiveAt    Timestamp
	Question        string
	Answer          json.RawMessage
}

// MessagePage is one page of a session's history, most recent first.
// Next is the zero cursor when the service did not supply one.
type MessagePage struct {
	Messages []RawMessage
	HasNext  bool
	Next     PageCursor
}
