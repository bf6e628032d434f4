// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"time"
)

// =============================================================================
// RECOMMENDATION ENTRY
// =============================================================================

// Defaults substituted for missing recommendation fields.
const (
	DefaultCareerTitle = "Unknown career"
	DefaultName        = "Anonymous"
)

// RecommendationEntry is one structured "role model" recommendation.
// Entries are only produced by the answer classifier.
type RecommendationEntry struct {
	Years       int    `json:"years"`
	CareerTitle string `json:"careerTitle"`
	Name        string `json:"name"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single question/answer exchange within a session.
//
// An empty Answer with IsStreaming set means the answer has not arrived yet.
// Once Answer is non-empty and IsStreaming is false the message is settled
// and must not change again.
type Message struct {
	// Identity
	MemberMessageID int64  `json:"memberMessageId"`
	SessionID       string `json:"sessionId"`

	// Timing
	CreatedAt    Timestamp `json:"createdAt"`
	LastActiveAt Timestamp `json:"lastActiveAt"`

	// Content
	Question   string                `json:"question"`
	Answer     string                `json:"answer"`
	RoleModels []RecommendationEntry `json:"roleModels,omitempty"`

	// State
	IsStreaming bool `json:"isStreaming,omitempty"`
	Failed      bool `json:"failed,omitempty"`
}

// NewPendingMessage creates the placeholder appended when a question is sent.
func NewPendingMessage(id int64, sessionID, question string, now time.Time) Message {
	ts := NewTimestamp(now)
	return Message{
		MemberMessageID: id,
		SessionID:       sessionID,
		CreatedAt:       ts,
		LastActiveAt:    ts,
		Question:        question,
		IsStreaming:     true,
	}
}

// IsAwaiting returns true while no answer content has arrived.
func (m Message) IsAwaiting() bool {
	return m.Answer == "" && m.IsStreaming
}

// IsSettled returns true once the answer is final.
func (m Message) IsSettled() bool {
	return !m.IsStreaming
}

// HasRecommendations reports whether the answer carried role models.
func (m Message) HasRecommendations() bool {
	return len(m.RoleModels) > 0
}

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	if m.RoleModels != nil {
		rm := make([]RecommendationEntry, len(m.RoleModels))
		copy(rm, m.RoleModels)
		m.RoleModels = rm
	}
	return m
}

// =============================================================================
// MESSAGE LIST HELPERS
// =============================================================================

// IndexOf returns the position of the message with id, or -1.
func IndexOf(messages []Message, id int64) int {
	for i := range messages {
		if messages[i].MemberMessageID == id {
			return i
		}
	}
	return -1
}

// Replace returns a new list with the entry for id swapped for msg.
// The input list is not modified. If id is absent the input is returned.
func Replace(messages []Message, id int64, msg Message) []Message {
	idx := IndexOf(messages, id)
	if idx < 0 {
		return messages
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	out[idx] = msg
	return out
}

// Prepend returns a new list with older placed before messages.
func Prepend(older, messages []Message) []Message {
	out := make([]Message, 0, len(older)+len(messages))
	out = append(out, older...)
	return append(out, messages...)
}

// Append returns a new list with msg added at the end.
func Append(messages []Message, msg Message) []Message {
	out := make([]Message, 0, len(messages)+1)
	out = append(out, messages...)
	return append(out, msg)
}
