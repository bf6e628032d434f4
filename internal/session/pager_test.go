// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/navi-tui/internal/model"
)

// fakeService serves pages from a fixed list. When gate is non-nil every
// list call blocks until it is closed.
type fakeService struct {
	mu      sync.Mutex
	pages   []model.SessionPage
	cursors []model.PageCursor
	err     error
	gate    chan struct{}
	started chan struct{}
	calls   atomic.Int32
	deleted []string
	nextID  int
}

func (f *fakeService) ListSessions(ctx context.Context, cursor model.PageCursor, size int) (model.SessionPage, error) {
	n := int(f.calls.Add(1)) - 1
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = append(f.cursors, cursor)
	if f.err != nil {
		return model.SessionPage{}, f.err
	}
	if n >= len(f.pages) {
		return model.SessionPage{}, nil
	}
	return f.pages[n], nil
}

func (f *fakeService) CreateSession(ctx context.Context, question string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	return fmt.Sprintf("new-%d", f.nextID), nil
}

func (f *fakeService) DeleteSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, sessionID)
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sess(id string, day int) model.Session {
	return model.Session{
		SessionID:    id,
		SessionTitle: "title " + id,
		CreatedAt:    model.NewTimestamp(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)),
	}
}

// =============================================================================
// FETCH TESTS
// =============================================================================

func TestFetchNextPage_AppendsAndAdvancesCursor(t *testing.T) {
	svc := &fakeService{pages: []model.SessionPage{
		{Sessions: []model.Session{sess("a", 3), sess("b", 2)}, HasNext: true},
		{Sessions: []model.Session{sess("c", 1)}, HasNext: false},
	}}
	p := NewPager(svc, Options{Logger: quietLogger()})

	require.NoError(t, p.FetchNextPage(context.Background()))
	require.NoError(t, p.FetchNextPage(context.Background()))

	ids := []string{}
	for _, s := range p.Sessions() {
		ids = append(ids, s.SessionID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.False(t, p.HasNext())

	require.Len(t, svc.cursors, 2)
	assert.True(t, svc.cursors[0].IsZero())
	assert.Equal(t, "b", svc.cursors[1].ID)

	// No more pages: further calls do not hit the service.
	require.NoError(t, p.FetchNextPage(context.Background()))
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestFetchNextPage_EmptyPageEndsPagination(t *testing.T) {
	svc := &fakeService{pages: []model.SessionPage{{HasNext: true}}}
	p := NewPager(svc, Options{Logger: quietLogger()})

	require.NoError(t, p.FetchNextPage(context.Background()))

	snap := p.Snapshot()
	assert.False(t, snap.HasNext)
	assert.True(t, snap.IsInitialized)
	assert.Empty(t, snap.Sessions)
}

func TestFetchNextPage_ConcurrentCallsMakeOneRequest(t *testing.T) {
	svc := &fakeService{
		pages:   []model.SessionPage{{Sessions: []model.Session{sess("a", 1)}, HasNext: true}},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	p := NewPager(svc, Options{Logger: quietLogger()})

	done := make(chan error, 1)
	go func() { done <- p.FetchNextPage(context.Background()) }()

	<-svc.started
	assert.True(t, p.IsLoading())

	// Second call while the first is in flight.
	require.NoError(t, p.FetchNextPage(context.Background()))

	close(svc.gate)
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), svc.calls.Load())
	assert.False(t, p.IsLoading())
	assert.Len(t, p.Sessions(), 1)
}

func TestFetchNextPage_ManyConcurrentCallers(t *testing.T) {
	svc := &fakeService{
		// Last page, so late goroutines cannot start a second request.
		pages: []model.SessionPage{{Sessions: []model.Session{sess("a", 1)}, HasNext: false}},
		gate:  make(chan struct{}),
	}
	p := NewPager(svc, Options{Logger: quietLogger()})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.FetchNextPage(context.Background())
		}()
	}

	// Let the goroutines pile up before releasing the single request.
	require.Eventually(t, func() bool { return svc.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(svc.gate)
	wg.Wait()

	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestFetchNextPage_FailureLeavesStateUnchanged(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{err: boom}
	p := NewPager(svc, Options{Logger: quietLogger()})

	err := p.FetchNextPage(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, p.LastError(), boom)

	snap := p.Snapshot()
	assert.True(t, snap.HasNext)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsInitialized)

	// Retry succeeds once the service recovers.
	svc.mu.Lock()
	svc.err = nil
	svc.pages = []model.SessionPage{{}, {Sessions: []model.Session{sess("a", 1)}}}
	svc.mu.Unlock()

	require.NoError(t, p.FetchNextPage(context.Background()))
	assert.Len(t, p.Sessions(), 1)
	assert.NoError(t, p.LastError())
}

func TestReset_DiscardsInFlightResult(t *testing.T) {
	svc := &fakeService{
		pages:   []model.SessionPage{{Sessions: []model.Session{sess("stale", 1)}, HasNext: false}},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	p := NewPager(svc, Options{Logger: quietLogger()})

	done := make(chan error, 1)
	go func() { done <- p.FetchNextPage(context.Background()) }()
	<-svc.started

	p.Reset()
	close(svc.gate)
	require.NoError(t, <-done)

	snap := p.Snapshot()
	assert.Empty(t, snap.Sessions)
	assert.True(t, snap.HasNext)
	assert.False(t, snap.IsLoading)
}

// =============================================================================
// MUTATION TESTS
// =============================================================================

func TestCreate_PrependsSession(t *testing.T) {
	svc := &fakeService{pages: []model.SessionPage{{Sessions: []model.Session{sess("old", 1)}}}}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewPager(svc, Options{Logger: quietLogger(), Now: func() time.Time { return fixed }})
	require.NoError(t, p.FetchNextPage(context.Background()))

	id, err := p.Create(context.Background(), "what should I study?")
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)

	list := p.Sessions()
	require.Len(t, list, 2)
	assert.Equal(t, "new-1", list[0].SessionID)
	assert.Equal(t, "what should I study?", list[0].SessionTitle)
	assert.True(t, list[0].CreatedAt.Equal(fixed))
	assert.Equal(t, "old", list[1].SessionID)
}

func TestCreate_Failure(t *testing.T) {
	svc := &fakeService{err: errors.New("down")}
	p := NewPager(svc, Options{Logger: quietLogger()})

	_, err := p.Create(context.Background(), "q")
	assert.Error(t, err)
	assert.Empty(t, p.Sessions())
}

func TestDelete_RemovesSession(t *testing.T) {
	svc := &fakeService{pages: []model.SessionPage{{Sessions: []model.Session{sess("a", 2), sess("b", 1)}}}}
	p := NewPager(svc, Options{Logger: quietLogger()})
	require.NoError(t, p.FetchNextPage(context.Background()))

	require.NoError(t, p.Delete(context.Background(), "a"))

	_, found := p.Find("a")
	assert.False(t, found)
	_, found = p.Find("b")
	assert.True(t, found)
	assert.Equal(t, []string{"a"}, svc.deleted)
}

func TestAppendUnique_SkipsDuplicates(t *testing.T) {
	out := appendUnique([]model.Session{sess("a", 1)}, []model.Session{sess("a", 1), sess("b", 2)})
	assert.Len(t, out, 2)
}
