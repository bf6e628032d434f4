// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/navi-tui/internal/util"
)

// TimeLayout is the zone-less local date-time the service emits.
const TimeLayout = "2006-01-02T15:04:05"

// titleWidth bounds generated session titles.
const titleWidth = 40

// ErrNoSession is returned for an unknown session id.
var ErrNoSession = errors.New("session not found")

// =============================================================================
// RECORDS
// =============================================================================

// SessionRecord is a stored session.
type SessionRecord struct {
	ID        string
	Title     string
	CreatedAt time.Time
	seq       int64
}

// MessageRecord is a stored exchange. Answer is the text the service would
// have produced; recommendation answers hold a JSON document.
type MessageRecord struct {
	ID           int64
	SessionID    string
	CreatedAt    time.Time
	LastActiveAt time.Time
	Question     string
	Answer       string
}

// =============================================================================
// STORE
// =============================================================================

// Store keeps sessions and messages in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
	messages map[string][]MessageRecord // oldest first
	nextSeq  int64
	nextMsg  int64
	now      func() time.Time
}

// NewStore returns an empty store. now defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*SessionRecord),
		messages: make(map[string][]MessageRecord),
		now:      now,
	}
}

// CreateSession stores a session titled after question and returns it.
func (s *Store) CreateSession(question string) SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	rec := &SessionRecord{
		ID:        uuid.NewString(),
		Title:     util.TruncateWidth(util.FirstLine(question), titleWidth),
		CreatedAt: s.now().Truncate(time.Second),
		seq:       s.nextSeq,
	}
	s.sessions[rec.ID] = rec
	return *rec
}

// DeleteSession removes a session and its messages.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNoSession
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

// AddMessage appends an exchange to a session.
func (s *Store) AddMessage(sessionID, question, answer string) (MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return MessageRecord{}, ErrNoSession
	}
	s.nextMsg++
	now := s.now().Truncate(time.Second)
	msg := MessageRecord{
		ID:           s.nextMsg,
		SessionID:    sessionID,
		CreatedAt:    now,
		LastActiveAt: now,
		Question:     question,
		Answer:       answer,
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return msg, nil
}

// Sessions returns up to size sessions older than cursorID, newest first.
// An empty or unknown cursorID starts from the newest session.
func (s *Store) Sessions(cursorID string, size int) ([]SessionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]SessionRecord, 0, len(s.sessions))
	for _, rec := range s.sessions {
		all = append(all, *rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq > all[j].seq })

	start := 0
	if cur, ok := s.sessions[cursorID]; ok {
		start = sort.Search(len(all), func(i int) bool { return all[i].seq < cur.seq })
	}
	return window(all, start, size)
}

// Messages returns up to size messages of a session older than cursorID,
// newest first. A cursorID that is not a message id starts from the newest.
func (s *Store) Messages(sessionID, cursorID string, size int) ([]MessageRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, false, ErrNoSession
	}

	stored := s.messages[sessionID]
	newest := make([]MessageRecord, len(stored))
	for i, m := range stored {
		newest[len(stored)-1-i] = m
	}

	start := 0
	if id, err := strconv.ParseInt(cursorID, 10, 64); err == nil {
		start = sort.Search(len(newest), func(i int) bool { return newest[i].ID < id })
	}
	page, hasNext := window(newest, start, size)
	return page, hasNext, nil
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func window[T any](items []T, start, size int) ([]T, bool) {
	if start >= len(items) {
		return []T{}, false
	}
	end := min(start+size, len(items))
	return append([]T(nil), items[start:end]...), end < len(items)
}
