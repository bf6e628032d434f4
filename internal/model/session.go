// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"strconv"
)

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is a chat session as listed by the remote service.
type Session struct {
	SessionID    string    `json:"sessionId"`
	SessionTitle string    `json:"sessionTitle"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// DisplayTitle returns the title, falling back to a generic label.
func (s Session) DisplayTitle() string {
	if s.SessionTitle == "" {
		return "New chat"
	}
	return s.SessionTitle
}

// =============================================================================
// PAGE CURSOR
// =============================================================================

// PageCursor marks the last item seen. The zero value requests the first page.
type PageCursor struct {
	At *Timestamp
	ID string
}

// IsZero returns true when no page has been consumed yet.
func (c PageCursor) IsZero() bool {
	return c.At == nil && c.ID == ""
}

// CursorAfterSession returns the cursor positioned at s.
func CursorAfterSession(s Session) PageCursor {
	at := s.CreatedAt
	return PageCursor{At: &at, ID: s.SessionID}
}

// CursorAfterMessage returns the cursor positioned at m.
func CursorAfterMessage(m Message) PageCursor {
	at := m.CreatedAt
	return PageCursor{At: &at, ID: strconv.FormatInt(m.MemberMessageID, 10)}
}
