// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/jeranaias/navi-tui/internal/model"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// envelope is the common response wrapper.
type envelope struct {
	IsSuccess *bool           `json:"isSuccess"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Result    json.RawMessage `json:"result"`
}

// succeeded reports whether the envelope explicitly signalled success.
func (e envelope) succeeded() bool {
	return e.IsSuccess != nil && *e.IsSuccess
}

// hasResult reports whether a non-null result was attached.
func (e envelope) hasResult() bool {
	r := bytes.TrimSpace(e.Result)
	return len(r) > 0 && !bytes.Equal(r, []byte("null"))
}

// questionRequest is the body of create and send calls.
type questionRequest struct {
	Question string `json:"question"`
}

// =============================================================================
// WIRE RECORDS
// =============================================================================

// flexID accepts identifiers the service emits as either strings or numbers.
type flexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type sessionRecord struct {
	SessionID    flexID          `json:"sessionId"`
	SessionTitle string          `json:"sessionTitle"`
	CreatedAt    model.Timestamp `json:"createdAt"`
}

type sessionListResult struct {
	Details []sessionRecord `json:"details"`
	HasNext bool            `json:"hasNext"`
}

type createSessionResult struct {
	SessionID flexID `json:"sessionId"`
}

type messageRecord struct {
	MemberMessageID flexID          `json:"memberMessageId"`
	SessionID       flexID          `json:"sessionId"`
	CreatedAt       model.Timestamp `json:"createdAt"`
	LastActiveAt    model.Timestamp `json:"lastActiveAt"`
	Question        string          `json:"question"`
	Answer          json.RawMessage `json:"answer"`
}

type messageListResult struct {
	Details       []messageRecord  `json:"details"`
	HasNext       bool             `json:"hasNext"`
	NextCreatedAt *model.Timestamp `json:"nextCreatedAt"`
	NextMessageID flexID           `json:"nextMessageId"`
}

// sendResult carries the answer under result.map.response. Some deployments
// put response directly on result; both are accepted.
type sendResult struct {
	Map *struct {
		Response json.RawMessage `json:"response"`
	} `json:"map"`
	Response json.RawMessage `json:"response"`
}

func (r sendResult) response() json.RawMessage {
	if r.Map != nil && !isNull(r.Map.Response) {
		return r.Map.Response
	}
	if !isNull(r.Response) {
		return r.Response
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	r := bytes.TrimSpace(raw)
	return len(r) == 0 || bytes.Equal(r, []byte("null"))
}

// =============================================================================
// CONVERSION
// =============================================================================

func (r sessionRecord) toModel() model.Session {
	return model.Session{
		SessionID:    string(r.SessionID),
		SessionTitle: r.SessionTitle,
		CreatedAt:    r.CreatedAt,
	}
}

func (r messageRecord) toModel() model.RawMessage {
	// Non-numeric ids become 0; the pager never uses them as cursors.
	id, _ := strconv.ParseInt(string(r.MemberMessageID), 10, 64)
	return model.RawMessage{
		MemberMessageID: id,
		SessionID:       string(r.SessionID),
		CreatedAt:       r.CreatedAt,
		LastActiveAt:    r.LastActiveAt,
		Question:        r.Question,
		Answer:          r.Answer,
	}
}

func (r messageListResult) toModel() model.MessagePage {
	page := model.MessagePage{
		Messages: make([]model.RawMessage, 0, len(r.Details)),
		HasNext:  r.HasNext,
	}
	for _, d := range r.Details {
		page.Messages = append(page.Messages, d.toModel())
	}
	if r.NextCreatedAt != nil && r.NextCreatedAt.String() != "" && r.NextMessageID != "" {
		at := *r.NextCreatedAt
		page.Next = model.PageCursor{At: &at, ID: string(r.NextMessageID)}
	}
	return page
}
