// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/navi-tui/internal/config"
	"github.com/jeranaias/navi-tui/internal/conversation"
	"github.com/jeranaias/navi-tui/internal/history"
	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/session"
	"github.com/jeranaias/navi-tui/internal/ui/components"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeBackend struct {
	mu       sync.Mutex
	sessions []model.Session
	listErr  error
	history  map[string][]model.MessagePage
	answer   string
	created  int
}

func (f *fakeBackend) ListSessions(ctx context.Context, cursor model.PageCursor, size int) (model.SessionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return model.SessionPage{}, f.listErr
	}
	if !cursor.IsZero() {
		return model.SessionPage{}, nil
	}
	return model.SessionPage{Sessions: append([]model.Session(nil), f.sessions...)}, nil
}

func (f *fakeBackend) CreateSession(ctx context.Context, question string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	id := fmt.Sprintf("new-%d", f.created)
	f.history[id] = []model.MessagePage{{
		Messages: []model.RawMessage{raw(1, id, question, `"welcome aboard"`)},
	}}
	return id, nil
}

func (f *fakeBackend) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sessions {
		if s.SessionID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return errors.New("no such session")
}

func (f *fakeBackend) ListMessages(ctx context.Context, sessionID string, cursor model.PageCursor, size int) (model.MessagePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pages := f.history[sessionID]
	if len(pages) == 0 {
		return model.MessagePage{}, nil
	}
	f.history[sessionID] = pages[1:]
	return pages[0], nil
}

func (f *fakeBackend) Send(ctx context.Context, sessionID, question string) (json.RawMessage, error) {
	return json.RawMessage(f.answer), nil
}

var day = time.Date(2025, 5, 1, 12, 0, 0, 0, time.Local)

func raw(id int64, sid, q, answer string) model.RawMessage {
	ts := model.NewTimestamp(day.Add(time.Duration(id) * time.Minute))
	return model.RawMessage{
		MemberMessageID: id,
		SessionID:       sid,
		CreatedAt:       ts,
		LastActiveAt:    ts,
		Question:        q,
		Answer:          json.RawMessage(answer),
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func newTestModel(t *testing.T, be *fakeBackend) Model {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessions := session.NewPager(be, session.Options{PageSize: 15, Logger: logger})
	hist := history.NewPager(be, history.Options{PageSize: 2, Logger: logger})
	ctrl := conversation.New(be, sessions, hist, conversation.Options{
		RevealInterval: time.Millisecond,
		CardsDelay:     time.Millisecond,
		Cooldown:       time.Millisecond,
		Logger:         logger,
	})
	theme := styles.NewTheme("dark")

	m := New(Deps{
		Sessions:   sessions,
		History:    hist,
		Controller: ctrl,
		Theme:      theme,
		Markdown:   components.NewMarkdown("notty", false),
		Logger:     logger,
		ShowDates:  true,
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

// isWidgetMsg reports messages owned by bubbles widgets (cursor blink,
// spinner ticks). They reschedule themselves forever, so tests drop them.
func isWidgetMsg(msg tea.Msg) bool {
	t := reflect.TypeOf(msg)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t != nil && strings.HasPrefix(t.PkgPath(), "github.com/charmbracelet/bubbles")
}

// run executes cmd and every follow-up command, feeding results back into
// the model until nothing is left.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 2000, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			continue
		}
		if isWidgetMsg(msg) {
			continue
		}
		var follow tea.Cmd
		var tm tea.Model
		tm, follow = m.Update(msg)
		m = tm.(Model)
		queue = append(queue, follow)
	}
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	tm, cmd := m.Update(msg)
	return run(t, tm.(Model), cmd)
}

func typeText(t *testing.T, m Model, s string) Model {
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(t *testing.T, m Model, k tea.KeyType) Model {
	return update(t, m, tea.KeyMsg{Type: k})
}

func loadSessions(t *testing.T, m Model) Model {
	return run(t, m, m.fetchSessions())
}

// =============================================================================
// TESTS
// =============================================================================

func TestModel_FirstQuestionCreatesSession(t *testing.T) {
	be := &fakeBackend{history: map[string][]model.MessagePage{}}
	m := newTestModel(t, be)
	m = loadSessions(t, m)

	m = typeText(t, m, "hello")
	m = press(t, m, tea.KeyEnter)

	assert.Equal(t, "new-1", m.ctrl.SessionID())
	assert.Equal(t, "new-1", m.sidebar.Active())
	assert.Equal(t, "", m.input.Value(), "input cleared after send")

	view := m.View()
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "welcome aboard")
}

func TestModel_SendRevealsAnswer(t *testing.T) {
	be := &fakeBackend{
		sessions: []model.Session{{SessionID: "s1", SessionTitle: "Career chat"}},
		history:  map[string][]model.MessagePage{},
		answer:   `"you could try data engineering"`,
	}
	m := newTestModel(t, be)
	m = loadSessions(t, m)

	// Open s1 from the sidebar.
	m = press(t, m, tea.KeyTab)
	m = press(t, m, tea.KeyEnter)
	require.Equal(t, "s1", m.ctrl.SessionID())
	assert.False(t, m.sidebar.Focused(), "opening a chat returns focus to the input")

	m = typeText(t, m, "what next?")
	m = press(t, m, tea.KeyEnter)

	msgs := m.ctrl.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsSettled())
	assert.Equal(t, "you could try data engineering", m.ctrl.VisibleAnswer(msgs[0].MemberMessageID))

	view := m.View()
	assert.Contains(t, view, "Career chat", "header shows the session title")
	assert.Contains(t, view, "data engineering")
	assert.NotContains(t, view, components.GeneratingText)
	assert.True(t, m.viewport.AtBottom(), "view follows the newest answer")
}

func TestModel_SentinelLoadsAllHistory(t *testing.T) {
	be := &fakeBackend{
		sessions: []model.Session{{SessionID: "s1"}},
		history: map[string][]model.MessagePage{
			"s1": {
				{Messages: []model.RawMessage{raw(4, "s1", "q4", `"a4"`), raw(3, "s1", "q3", `"a3"`)}, HasNext: true},
				{Messages: []model.RawMessage{raw(2, "s1", "q2", `"a2"`), raw(1, "s1", "q1", `"a1"`)}, HasNext: false},
			},
		},
	}
	m := newTestModel(t, be)
	m = loadSessions(t, m)
	m = press(t, m, tea.KeyTab)
	m = press(t, m, tea.KeyEnter)

	// The first page fits, so the sentinel stays in view and the second page
	// follows after the cooldown. The prepended page pushes the total past the
	// viewport, and the view keeps the previously visible messages in place.
	msgs := m.ctrl.Messages()
	require.Len(t, msgs, 4)
	for i, want := range []string{"q1", "q2", "q3", "q4"} {
		assert.Equal(t, want, msgs[i].Question)
	}
	assert.False(t, m.ctrl.HasOlder())
	assert.Greater(t, m.viewport.TotalLineCount(), m.viewport.Height)
	assert.Greater(t, m.viewport.YOffset, 0, "prepending keeps the anchored content in view")
	assert.Contains(t, m.renderConversation(), beginningHint)

	m.viewport.GotoTop()
	assert.Contains(t, m.View(), beginningHint)
}

func TestModel_Inspector(t *testing.T) {
	be := &fakeBackend{
		sessions: []model.Session{{SessionID: "s1"}},
		history: map[string][]model.MessagePage{
			"s1": {{Messages: []model.RawMessage{raw(1, "s1", "q1", `{"response":[{"years":3,"careerTitle":"Engineer","name":"Alice"}]}`)}}},
		},
	}
	m := newTestModel(t, be)
	m = loadSessions(t, m)
	m = press(t, m, tea.KeyTab)
	m = press(t, m, tea.KeyEnter)

	assert.Contains(t, m.View(), "Alice", "history cards are shown at once")

	m = press(t, m, tea.KeyCtrlO)
	require.True(t, m.inspector.Visible())
	assert.Contains(t, m.View(), "careerTitle")

	m = press(t, m, tea.KeyEsc)
	assert.False(t, m.inspector.Visible())
}

func TestModel_DeleteActiveSession(t *testing.T) {
	be := &fakeBackend{
		sessions: []model.Session{{SessionID: "s1"}, {SessionID: "s2"}},
		history:  map[string][]model.MessagePage{},
	}
	m := newTestModel(t, be)
	m = loadSessions(t, m)
	m = press(t, m, tea.KeyTab)
	m = press(t, m, tea.KeyEnter)
	require.Equal(t, "s1", m.ctrl.SessionID())

	m = press(t, m, tea.KeyTab)
	m = typeText(t, m, "d")

	assert.Equal(t, 1, m.sidebar.Len())
	assert.Equal(t, "", m.ctrl.SessionID(), "deleting the open chat starts a new one")
	assert.Equal(t, "chat deleted", m.statusMsg)
}

func TestModel_SessionLoadError(t *testing.T) {
	be := &fakeBackend{listErr: errors.New("boom"), history: map[string][]model.MessagePage{}}
	m := newTestModel(t, be)
	m = loadSessions(t, m)

	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "could not load chats")
}

func TestModel_ConfigReload(t *testing.T) {
	be := &fakeBackend{history: map[string][]model.MessagePage{}}
	m := newTestModel(t, be)

	cfg := config.Default()
	cfg.UI.ShowDates = false
	cfg.UI.Markdown = false
	cfg.Paging.SessionPageSize = 7

	m = update(t, m, ConfigReloadedMsg{Config: cfg})
	assert.False(t, m.showDates)
	assert.False(t, m.md.Enabled())
	assert.Equal(t, "config reloaded", m.statusMsg)
}

func TestModel_BlankQuestionIgnored(t *testing.T) {
	be := &fakeBackend{history: map[string][]model.MessagePage{}}
	m := newTestModel(t, be)

	m = typeText(t, m, "   ")
	m = press(t, m, tea.KeyEnter)

	assert.Equal(t, 0, be.created)
	assert.Empty(t, m.ctrl.Messages())
	assert.Contains(t, m.View(), welcomeText[:20])
}

func TestModel_HelpToggle(t *testing.T) {
	be := &fakeBackend{history: map[string][]model.MessagePage{}}
	m := newTestModel(t, be)

	m = press(t, m, tea.KeyF1)
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "inspect message")

	m = press(t, m, tea.KeyEsc)
	assert.False(t, m.showHelp)
}
