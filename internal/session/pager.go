// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/navi-tui/internal/model"
)

// DefaultPageSize is the number of sessions requested per page.
const DefaultPageSize = 15

// Service is the remote session store.
type Service interface {
	ListSessions(ctx context.Context, cursor model.PageCursor, size int) (model.SessionPage, error)
	CreateSession(ctx context.Context, question string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Options configures a Pager.
type Options struct {
	PageSize int
	Logger   logrus.FieldLogger
	// Now is used to stamp locally created sessions. Defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a consistent copy of the pager state.
type Snapshot struct {
	Sessions      []model.Session
	HasNext       bool
	IsLoading     bool
	IsInitialized bool
}

// =============================================================================
// PAGER
// =============================================================================

// Pager pages through the session list with a cursor.
type Pager struct {
	mu sync.Mutex

	svc      Service
	pageSize int
	log      logrus.FieldLogger
	now      func() time.Time

	sessions    []model.Session
	cursor      model.PageCursor
	hasNext     bool
	loading     bool
	initialized bool
	lastErr     error
	epoch       uint64 // bumped by Reset so stale fetches are discarded
}

// NewPager creates a pager with the first page pending.
func NewPager(svc Service, opts Options) *Pager {
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pager{
		svc:      svc,
		pageSize: size,
		log:      logger.WithField("component", "session_pager"),
		now:      now,
		hasNext:  true,
	}
}

// FetchNextPage loads the next page of sessions.
//
// It is a no-op when there are no more pages or a fetch is already in
// flight. On failure the list, cursor and hasNext are left unchanged and the
// error is logged, recorded for LastError, and returned.
func (p *Pager) FetchNextPage(ctx context.Context) error {
	p.mu.Lock()
	if !p.hasNext || p.loading {
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	cursor := p.cursor
	size := p.pageSize
	epoch := p.epoch
	p.mu.Unlock()

	page, err := p.svc.ListSessions(ctx, cursor, size)

	p.mu.Lock()
	defer p.mu.Unlock()

	if epoch != p.epoch {
		// Reset while the request was in flight.
		return nil
	}
	p.loading = false

	if err != nil {
		p.lastErr = err
		p.log.WithError(err).WithField("page_size", size).Warn("session page fetch failed")
		return fmt.Errorf("fetch sessions: %w", err)
	}
	p.lastErr = nil
	p.initialized = true

	if len(page.Sessions) == 0 {
		p.hasNext = false
		return nil
	}

	p.sessions = appendUnique(p.sessions, page.Sessions)
	p.hasNext = page.HasNext
	p.cursor = model.CursorAfterSession(page.Sessions[len(page.Sessions)-1])

	p.log.WithFields(logrus.Fields{
		"count":    len(page.Sessions),
		"has_next": p.hasNext,
	}).Debug("session page loaded")
	return nil
}

// Reset returns the pager to "first page pending".
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sessions = nil
	p.cursor = model.PageCursor{}
	p.hasNext = true
	p.loading = false
	p.initialized = false
	p.lastErr = nil
	p.epoch++
}

// SetPageSize changes the size of subsequent page requests.
func (p *Pager) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	p.mu.Lock()
	p.pageSize = size
	p.mu.Unlock()
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create starts a new session seeded with question and places it at the
// front of the list.
func (p *Pager) Create(ctx context.Context, question string) (string, error) {
	id, err := p.svc.CreateSession(ctx, question)
	if err != nil {
		p.log.WithError(err).Warn("session create failed")
		return "", fmt.Errorf("create session: %w", err)
	}

	created := model.Session{
		SessionID:    id,
		SessionTitle: question,
		CreatedAt:    model.NewTimestamp(p.now()),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	list := make([]model.Session, 0, len(p.sessions)+1)
	list = append(list, created)
	for _, s := range p.sessions {
		if s.SessionID != id {
			list = append(list, s)
		}
	}
	p.sessions = list

	p.log.WithField("session_id", id).Info("session created")
	return id, nil
}

// Delete removes a session remotely and then from the list.
func (p *Pager) Delete(ctx context.Context, sessionID string) error {
	if err := p.svc.DeleteSession(ctx, sessionID); err != nil {
		p.log.WithError(err).WithField("session_id", sessionID).Warn("session delete failed")
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	list := make([]model.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		if s.SessionID != sessionID {
			list = append(list, s)
		}
	}
	p.sessions = list

	p.log.WithField("session_id", sessionID).Info("session deleted")
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Sessions returns a copy of the loaded sessions in fetch order.
func (p *Pager) Sessions() []model.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Session(nil), p.sessions...)
}

// Find returns the loaded session with the given id.
func (p *Pager) Find(sessionID string) (model.Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		if s.SessionID == sessionID {
			return s, true
		}
	}
	return model.Session{}, false
}

// HasNext reports whether more pages may exist.
func (p *Pager) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNext
}

// IsLoading reports whether a fetch is in flight.
func (p *Pager) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// LastError returns the error from the most recent failed fetch, or nil.
func (p *Pager) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Snapshot returns the full state.
func (p *Pager) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Sessions:      append([]model.Session(nil), p.sessions...),
		HasNext:       p.hasNext,
		IsLoading:     p.loading,
		IsInitialized: p.initialized,
	}
}

// appendUnique appends page to list, skipping ids already present. A
// session created locally can reappear in a later page.
func appendUnique(list, page []model.Session) []model.Session {
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		seen[s.SessionID] = struct{}{}
	}
	out := append([]model.Session(nil), list...)
	for _, s := range page {
		if _, dup := seen[s.SessionID]; dup {
			continue
		}
		seen[s.SessionID] = struct{}{}
		out = append(out, s)
	}
	return out
}
