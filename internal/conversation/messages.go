// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"encoding/json"

	"github.com/jeranaias/navi-tui/internal/history"
)

// =============================================================================
// EXPORTED MESSAGES
// =============================================================================

// SendFailedMsg reports a send whose response violated the service contract.
// The placeholder has already been settled with SendErrorText.
type SendFailedMsg struct {
	SessionID string
	MessageID int64
	Err       error
}

// SessionCreatedMsg is emitted after a question without an active session
// created a new one. The controller has already opened it.
type SessionCreatedMsg struct {
	SessionID string
	Question  string
}

// HistoryLoadedMsg is emitted after a page of history was prepended. The
// view should lay out the new content and call TakeScrollTarget.
type HistoryLoadedMsg struct {
	SessionID string
	Count     int
	First     bool
}

// =============================================================================
// INTERNAL RESULTS
// =============================================================================

// Every result carries the epoch it was started in.

type historyResultMsg struct {
	epoch     uint64
	sessionID string
	page      *history.Page
	err       error
}

type answerResultMsg struct {
	epoch     uint64
	sessionID string
	id        int64
	raw       json.RawMessage
	err       error
}

type sessionResultMsg struct {
	epoch     uint64
	question  string
	sessionID string
	err       error
}

type cardsDueMsg struct {
	epoch uint64
	id    int64
}
