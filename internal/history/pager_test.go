// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/navi-tui/internal/answer"
	"github.com/jeranaias/navi-tui/internal/model"
)

type call struct {
	sessionID string
	cursor    model.PageCursor
	size      int
}

type fakeService struct {
	mu    sync.Mutex
	pages map[string][]model.MessagePage
	calls []call
	err   error
	gate  chan struct{}
	start chan struct{}
}

func (f *fakeService) ListMessages(ctx context.Context, sessionID string, cursor model.PageCursor, size int) (model.MessagePage, error) {
	if f.start != nil {
		f.start <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{sessionID, cursor, size})
	if f.err != nil {
		return model.MessagePage{}, f.err
	}
	pages := f.pages[sessionID]
	if len(pages) == 0 {
		return model.MessagePage{}, nil
	}
	page := pages[0]
	f.pages[sessionID] = pages[1:]
	return page, nil
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func raw(id int64, minute int, answerJSON string) model.RawMessage {
	return model.RawMessage{
		MemberMessageID: id,
		SessionID:       "s1",
		CreatedAt:       model.NewTimestamp(time.Date(2025, 1, 1, 10, minute, 0, 0, time.UTC)),
		Question:        "q",
		Answer:          json.RawMessage(answerJSON),
	}
}

func ids(msgs []model.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.MemberMessageID
	}
	return out
}

// =============================================================================
// ORDERING
// =============================================================================

func TestLoadOlder_ReversesNewestFirstPage(t *testing.T) {
	svc := &fakeService{pages: map[string][]model.MessagePage{
		"s1": {
			{Messages: []model.RawMessage{raw(6, 6, `"f"`), raw(5, 5, `"e"`), raw(4, 4, `"d"`)}, HasNext: true},
			{Messages: []model.RawMessage{raw(3, 3, `"c"`), raw(2, 2, `"b"`), raw(1, 1, `"a"`)}, HasNext: false},
		},
	}}
	p := NewPager(svc, Options{PageSize: 3, Logger: quietLogger()})

	first, err := p.LoadOlder(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.First)
	assert.Equal(t, []int64{4, 5, 6}, ids(first.Messages))

	second, err := p.LoadOlder(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.False(t, second.First)
	assert.False(t, second.HasNext)

	// Prepending keeps the window oldest to newest.
	window := model.Prepend(second.Messages, first.Messages)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(window))

	// Exhausted: no further request.
	third, err := p.LoadOlder(context.Background(), "s1")
	assert.NoError(t, err)
	assert.Nil(t, third)
	assert.Equal(t, 2, svc.callCount())
}

func TestLoadOlder_UsesServerCursor(t *testing.T) {
	at := model.NewTimestamp(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	svc := &fakeService{pages: map[string][]model.MessagePage{
		"s1": {
			{Messages: []model.RawMessage{raw(9, 9, `"x"`)}, HasNext: true, Next: model.PageCursor{At: &at, ID: "8"}},
			{Messages: []model.RawMessage{raw(8, 8, `"y"`)}},
		},
	}}
	p := NewPager(svc, Options{PageSize: 1, Logger: quietLogger()})

	_, err := p.LoadOlder(context.Background(), "s1")
	require.NoError(t, err)
	_, err = p.LoadOlder(context.Background(), "s1")
	require.NoError(t, err)

	require.Len(t, svc.calls, 2)
	assert.True(t, svc.calls[0].cursor.IsZero())
	assert.Equal(t, "8", svc.calls[1].cursor.ID)
	assert.Equal(t, 1, svc.calls[1].size)
}

func TestLoadOlder_FallbackCursorIsOldestMessage(t *testing.T) {
	svc := &fakeService{pages: map[string][]model.MessagePage{
		"s1": {{Messages: []model.RawMessage{raw(12, 12, `"x"`), raw(11, 11, `"y"`)}, HasNext: true}},
	}}
	p := NewPager(svc, Options{Logger: quietLogger()})

	page, err := p.LoadOlder(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "11", page.Next.ID)
	assert.Equal(t, "11", p.State("s1").Cursor.ID)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestLoadOlder_ClassifiesAnswers(t *testing.T) {
	doc := `"{\"response\":[{\"years\":\"3\",\"careerTitle\":\"Engineer\",\"name\":\"Alice\"}]}"`
	svc := &fakeService{pages: map[string][]model.MessagePage{
		"s1": {{Messages: []model.RawMessage{raw(2, 2, doc), raw(1, 1, `"plain answer"`)}}},
	}}
	p := NewPager(svc, Options{Logger: quietLogger()})

	page, err := p.LoadOlder(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)

	assert.Equal(t, "plain answer", page.Messages[0].Answer)
	assert.Nil(t, page.Messages[0].RoleModels)

	assert.Equal(t, answer.RecommendationsReady, page.Messages[1].Answer)
	require.Len(t, page.Messages[1].RoleModels, 1)
	assert.Equal(t, model.RecommendationEntry{Years: 3, CareerTitle: "Engineer", Name: "Alice"}, page.Messages[1].RoleModels[0])

	for _, m := range page.Messages {
		assert.False(t, m.IsStreaming)
	}
}

// =============================================================================
// GUARDS
// =============================================================================

func TestLoadOlder_InFlightIsNoOp(t *testing.T) {
	svc := &fakeService{
		pages: map[string][]model.MessagePage{"s1": {{Messages: []model.RawMessage{raw(1, 1, `"a"`)}, HasNext: true}}},
		gate:  make(chan struct{}),
		start: make(chan struct{}, 1),
	}
	p := NewPager(svc, Options{Logger: quietLogger()})

	done := make(chan *Page, 1)
	go func() {
		page, _ := p.LoadOlder(context.Background(), "s1")
		done <- page
	}()
	<-svc.start
	assert.True(t, p.State("s1").Loading)

	page, err := p.LoadOlder(context.Background(), "s1")
	assert.NoError(t, err)
	assert.Nil(t, page)

	close(svc.gate)
	assert.NotNil(t, <-done)
	assert.Equal(t, 1, svc.callCount())
}

func TestLoadOlder_SessionsAreIndependent(t *testing.T) {
	svc := &fakeService{pages: map[string][]model.MessagePage{
		"s1": {{Messages: []model.RawMessage{raw(1, 1, `"a"`)}}},
		"s2": {{Messages: []model.RawMessage{raw(2, 2, `"b"`)}}},
	}}
	p := NewPager(svc, Options{Logger: quietLogger()})

	a, err := p.LoadOlder(context.Background(), "s1")
	require.NoError(t, err)
	b, err := p.LoadOlder(context.Background(), "s2")
	require.NoError(t, err)

	assert.Equal(t, "s1", a.SessionID)
	assert.Equal(t, "s2", b.SessionID)
	assert.Equal(t, 1, p.State("s1").Loaded)
}

func TestLoadOlder_EmptyPageStopsPaging(t *testing.T) {
	svc := &fakeService{pages: map[string][]model.MessagePage{}}
	p := NewPager(svc, Options{Logger: quietLogger()})

	page, err := p.LoadOlder(context.Background(), "fresh")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Empty(t, page.Messages)
	assert.True(t, page.First)
	assert.False(t, p.State("fresh").HasNext)
}

func TestLoadOlder_FailureKeepsState(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{err: boom}
	p := NewPager(svc, Options{Logger: quietLogger()})

	_, err := p.LoadOlder(context.Background(), "s1")
	assert.ErrorIs(t, err, boom)

	st := p.State("s1")
	assert.True(t, st.HasNext)
	assert.False(t, st.Loading)
	assert.True(t, st.Cursor.IsZero())
}

func TestReset_DiscardsInFlightPage(t *testing.T) {
	svc := &fakeService{
		pages: map[string][]model.MessagePage{"s1": {{Messages: []model.RawMessage{raw(1, 1, `"a"`)}}}},
		gate:  make(chan struct{}),
		start: make(chan struct{}, 1),
	}
	p := NewPager(svc, Options{Logger: quietLogger()})

	done := make(chan *Page, 1)
	go func() {
		page, _ := p.LoadOlder(context.Background(), "s1")
		done <- page
	}()
	<-svc.start

	p.Reset("s1")
	close(svc.gate)

	assert.Nil(t, <-done)
	assert.Equal(t, State{HasNext: true}, p.State("s1"))
}

func TestNewPager_DefaultPageSize(t *testing.T) {
	p := NewPager(&fakeService{}, Options{PageSize: -4, Logger: quietLogger()})
	assert.Equal(t, DefaultPageSize, p.PageSize())

	p.SetPageSize(5)
	assert.Equal(t, 5, p.PageSize())
}
