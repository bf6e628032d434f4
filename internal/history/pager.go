// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history pages backwards through a session's messages.
//
// The service returns each page newest first. The pager reverses it so the
// caller can prepend the page to an oldest-to-newest window, and classifies
// every answer on the way in. It knows nothing about the view; keeping the
// scroll position stable is the caller's job.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/navi-tui/internal/answer"
	"github.com/jeranaias/navi-tui/internal/model"
)

// DefaultPageSize is used when a non-positive size is configured.
const DefaultPageSize = 10

// Service lists a session's messages, newest first.
type Service interface {
	ListMessages(ctx context.Context, sessionID string, cursor model.PageCursor, size int) (model.MessagePage, error)
}

// Options configures a Pager.
type Options struct {
	PageSize int
	Logger   logrus.FieldLogger
}

// Page is one batch of older messages ready to prepend.
type Page struct {
	SessionID string
	Messages  []model.Message // oldest first
	Next      model.PageCursor
	HasNext   bool
	First     bool // the first page fetched for this session
}

// State is the pagination state of one session.
type State struct {
	Cursor  model.PageCursor
	HasNext bool
	Loading bool
	Loaded  int
}

type sessionState struct {
	cursor  model.PageCursor
	hasNext bool
	loading bool
	loaded  int
}

// =============================================================================
// PAGER
// =============================================================================

// Pager tracks per-session cursors. Safe for concurrent use.
type Pager struct {
	mu       sync.Mutex
	svc      Service
	pageSize int
	log      logrus.FieldLogger
	states   map[string]*sessionState
}

// NewPager creates a pager.
func NewPager(svc Service, opts Options) *Pager {
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pager{
		svc:      svc,
		pageSize: size,
		log:      logger.WithField("component", "message_pager"),
		states:   make(map[string]*sessionState),
	}
}

// SetPageSize changes the size of subsequent requests.
func (p *Pager) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	p.mu.Lock()
	p.pageSize = size
	p.mu.Unlock()
}

// PageSize returns the configured page size.
func (p *Pager) PageSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageSize
}

// LoadOlder fetches the page preceding everything loaded so far for
// sessionID.
//
// It returns (nil, nil) without calling the service when the session has no
// more history or a load for it is already in flight, and also when the
// session was reset while the request was outstanding. On failure the
// session state is left as it was.
func (p *Pager) LoadOlder(ctx context.Context, sessionID string) (*Page, error) {
	p.mu.Lock()
	st, ok := p.states[sessionID]
	if !ok {
		st = &sessionState{hasNext: true}
		p.states[sessionID] = st
	}
	if !st.hasNext || st.loading {
		p.mu.Unlock()
		return nil, nil
	}
	st.loading = true
	cursor := st.cursor
	first := st.loaded == 0 && cursor.IsZero()
	size := p.pageSize
	p.mu.Unlock()

	raw, err := p.svc.ListMessages(ctx, sessionID, cursor, size)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.states[sessionID] != st {
		return nil, nil
	}
	st.loading = false

	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"page_size":  size,
		}).Warn("history page fetch failed")
		return nil, fmt.Errorf("load messages for %s: %w", sessionID, err)
	}

	page := &Page{
		SessionID: sessionID,
		Messages:  Normalize(raw.Messages),
		First:     first,
	}

	if len(raw.Messages) == 0 {
		st.hasNext = false
		page.Next = st.cursor
		return page, nil
	}

	next := raw.Next
	if next.IsZero() {
		// Oldest message is last in the newest-first page.
		next = cursorFor(raw.Messages[len(raw.Messages)-1])
	}
	st.cursor = next
	st.hasNext = raw.HasNext
	st.loaded += len(page.Messages)

	page.Next = next
	page.HasNext = raw.HasNext

	p.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"count":      len(page.Messages),
		"has_next":   raw.HasNext,
	}).Debug("history page loaded")
	return page, nil
}

// Reset forgets the pagination state of sessionID. A load in flight for it
// is discarded when it completes.
func (p *Pager) Reset(sessionID string) {
	p.mu.Lock()
	delete(p.states, sessionID)
	p.mu.Unlock()
}

// ResetAll forgets every session.
func (p *Pager) ResetAll() {
	p.mu.Lock()
	p.states = make(map[string]*sessionState)
	p.mu.Unlock()
}

// State returns the pagination state of sessionID. An unknown session
// reports the first page pending.
func (p *Pager) State(sessionID string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.states[sessionID]
	if !ok {
		return State{HasNext: true}
	}
	return State{
		Cursor:  st.cursor,
		HasNext: st.hasNext,
		Loading: st.loading,
		Loaded:  st.loaded,
	}
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize converts a newest-first page of raw messages into settled
// messages ordered oldest first, with every answer classified.
func Normalize(raw []model.RawMessage) []model.Message {
	out := make([]model.Message, len(raw))
	for i, r := range raw {
		res := answer.Classify(r.Answer)
		out[len(raw)-1-i] = model.Message{
			MemberMessageID: r.MemberMessageID,
			SessionID:       r.SessionID,
			CreatedAt:       r.CreatedAt,
			LastActiveAt:    r.LastActiveAt,
			Question:        r.Question,
			Answer:          res.Text,
			RoleModels:      res.RoleModels,
		}
	}
	return out
}

func cursorFor(r model.RawMessage) model.PageCursor {
	return model.CursorAfterMessage(model.Message{
		MemberMessageID: r.MemberMessageID,
		CreatedAt:       r.CreatedAt,
	})
}
