// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
//
// This package defines the core domain types shared by the pagers, the
// conversation controller and the UI.
//
// # Key Types
//
//   - Session: A chat session as listed by the remote service
//   - Message: One question/answer exchange within a session
//   - RecommendationEntry: A structured "role model" recommendation
//   - PageCursor: Opaque (timestamp, id) pagination marker
//   - Timestamp: A server timestamp that remembers its original text
//
// # Usage
//
// A placeholder for a freshly sent question:
//
//	msg := model.NewPendingMessage(id, sessionID, "hello", time.Now())
//	if msg.IsAwaiting() {
//	    // show the waiting indicator
//	}
package model
