// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/navi-tui/internal/api"
	"github.com/jeranaias/navi-tui/internal/config"
	"github.com/jeranaias/navi-tui/internal/conversation"
	"github.com/jeranaias/navi-tui/internal/history"
	"github.com/jeranaias/navi-tui/internal/scroll"
	"github.com/jeranaias/navi-tui/internal/session"
	"github.com/jeranaias/navi-tui/internal/ui/components"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
)

// DefaultListTimeout bounds session list and delete calls.
const DefaultListTimeout = 30 * time.Second

// Layout heights. Must match the rendered heights in view.go.
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// =============================================================================
// MODEL
// =============================================================================

// Deps are the collaborators of the chat model.
type Deps struct {
	Sessions   *session.Pager
	History    *history.Pager // optional; only used to apply page size changes
	Controller *conversation.Controller
	Theme      *styles.Theme
	Markdown   *components.Markdown
	Logger     logrus.FieldLogger

	ShowDates   bool
	Threshold   float64
	MarginLines int
	ListTimeout time.Duration
}

// Model is the root TUI model.
type Model struct {
	theme *styles.Theme
	keys  KeyMap
	log   logrus.FieldLogger

	sessions    *session.Pager
	hist        *history.Pager
	ctrl        *conversation.Controller
	listTimeout time.Duration

	watcher *scroll.LineWatcher
	trigger *loadTrigger

	sidebar   *components.Sidebar
	inspector *components.Inspector
	md        *components.Markdown

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model

	width     int
	height    int
	ready     bool
	showHelp  bool
	showDates bool

	statusMsg string
	statusErr bool
}

// loadTrigger collects the commands started by the top sentinel. It is a
// pointer so the watcher callback outlives Model copies.
type loadTrigger struct {
	ctrl *conversation.Controller
	cmds []tea.Cmd
}

func (t *loadTrigger) fire() {
	if cmd := t.ctrl.LoadOlder(); cmd != nil {
		t.cmds = append(t.cmds, cmd)
	}
}

func (t *loadTrigger) take() tea.Cmd {
	cmds := t.cmds
	t.cmds = nil
	return tea.Batch(cmds...)
}

// New creates the root model.
func New(d Deps) Model {
	logger := d.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	theme := d.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	listTimeout := d.ListTimeout
	if listTimeout <= 0 {
		listTimeout = DefaultListTimeout
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask navi about your career..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = styles.DotsSpinner.Bubble()

	m := Model{
		theme:       theme,
		keys:        DefaultKeyMap(),
		log:         logger.WithField("component", "tui"),
		sessions:    d.Sessions,
		hist:        d.History,
		ctrl:        d.Controller,
		listTimeout: listTimeout,
		trigger:     &loadTrigger{ctrl: d.Controller},
		sidebar:     components.NewSidebar(theme),
		inspector:   components.NewInspector(theme),
		md:          d.Markdown,
		viewport:    viewport.New(80, 20),
		input:       ti,
		spinner:     sp,
		help:        help.New(),
		showDates:   d.ShowDates,
	}
	m.observe(d.Threshold, d.MarginLines)
	return m
}

func (m *Model) observe(threshold float64, margin int) {
	m.watcher = scroll.NewLineWatcher(threshold, margin)
	m.watcher.Observe(scroll.TopSentinel, m.trigger.fire)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink, the spinner and the first session page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.fetchSessions())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.inspector.Visible() {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, tea.Batch(cmd, m.measure())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.hasAwaiting() {
			return m, tea.Batch(cmd, m.refresh())
		}
		return m, cmd

	case sessionsLoadedMsg:
		m.sidebar.SetSnapshot(m.sessions.Snapshot())
		if msg.err != nil {
			m.setError("could not load chats: " + describe(msg.err))
		}
		return m, nil

	case sessionDeletedMsg:
		if msg.err != nil {
			m.setError("could not delete chat: " + describe(msg.err))
			return m, nil
		}
		if msg.sessionID == m.ctrl.SessionID() {
			m.ctrl.NewChat()
			m.sidebar.SetActive("")
		}
		m.sidebar.SetSnapshot(m.sessions.Snapshot())
		m.setStatus("chat deleted")
		return m, m.refresh()

	case conversation.SessionCreatedMsg:
		m.sidebar.SetSnapshot(m.sessions.Snapshot())
		m.sidebar.SetActive(msg.SessionID)
		return m, m.refresh()

	case conversation.SendFailedMsg:
		m.setError("the service returned an unusable answer")
		return m, m.refresh()

	case conversation.HistoryLoadedMsg:
		return m, m.refresh()

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, m.refresh()
	}

	// Everything else belongs to the controller (answers, reveal ticks,
	// history pages, cooldowns) or to the input.
	cmd := m.ctrl.Update(msg)
	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	return m, tea.Batch(cmd, inputCmd, m.refresh())
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.inspector.Visible() {
		switch {
		case key.Matches(msg, m.keys.Skip):
			m.inspector.Close()
		case key.Matches(msg, m.keys.Up):
			m.inspector.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.inspector.ScrollDown(1)
		case key.Matches(msg, m.keys.PageUp):
			m.inspector.ScrollUp(m.viewport.Height / 2)
		case key.Matches(msg, m.keys.PageDown):
			m.inspector.ScrollDown(m.viewport.Height / 2)
		}
		return m, nil
	}
	if m.showHelp && key.Matches(msg, m.keys.Skip) {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.NewChat()
		m.sidebar.SetActive("")
		m.focusInput()
		m.setStatus("")
		return m, m.refresh()
	case key.Matches(msg, m.keys.Inspect):
		m.openInspector()
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, m.measure()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, m.measure()
	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, m.measure()
	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, m.measure()
	}

	if m.sidebar.Focused() {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		question := m.input.Value()
		cmd := m.ctrl.SendQuestion(question)
		if cmd != nil {
			m.input.Reset()
			m.setStatus("")
		}
		return m, tea.Batch(cmd, m.follow())
	case key.Matches(msg, m.keys.Skip):
		return m, tea.Batch(m.ctrl.SkipReveal(), m.refresh())
	case msg.Type == tea.KeyUp:
		m.viewport.LineUp(1)
		return m, m.measure()
	case msg.Type == tea.KeyDown:
		m.viewport.LineDown(1)
		return m, m.measure()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.Up()
	case key.Matches(msg, m.keys.Down):
		m.sidebar.Down()
		if m.sidebar.WantsMore() {
			return m, m.fetchSessions()
		}
	case key.Matches(msg, m.keys.Submit):
		sel, ok := m.sidebar.Selected()
		if !ok {
			return m, nil
		}
		m.sidebar.SetActive(sel.SessionID)
		m.focusInput()
		m.setStatus("")
		cmd := m.ctrl.Open(sel.SessionID)
		return m, tea.Batch(cmd, m.refresh())
	case key.Matches(msg, m.keys.Delete):
		sel, ok := m.sidebar.Selected()
		if !ok {
			return m, nil
		}
		return m, m.deleteSession(sel.SessionID)
	case key.Matches(msg, m.keys.Skip):
		m.focusInput()
	}
	return m, nil
}

func (m *Model) toggleFocus() {
	if m.sidebar.Focused() {
		m.focusInput()
		return
	}
	m.sidebar.SetFocused(true)
	m.input.Blur()
}

func (m *Model) focusInput() {
	m.sidebar.SetFocused(false)
	m.input.Focus()
}

func (m *Model) openInspector() {
	msgs := m.ctrl.Messages()
	if len(msgs) == 0 {
		return
	}
	m.inspector.Open(msgs[len(msgs)-1])
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) fetchSessions() tea.Cmd {
	pager := m.sessions
	timeout := m.listTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sessionsLoadedMsg{err: pager.FetchNextPage(ctx)}
	}
}

func (m Model) deleteSession(id string) tea.Cmd {
	pager := m.sessions
	timeout := m.listTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sessionDeletedMsg{sessionID: id, err: pager.Delete(ctx, id)}
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true
	m.theme.SetSize(width, height)

	bodyHeight := height - headerHeight - inputHeight - statusHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	convWidth := width - m.theme.SidebarWidth()
	if convWidth < 1 {
		convWidth = 1
	}

	m.viewport.Width = convWidth
	m.viewport.Height = bodyHeight
	m.sidebar.Width = m.theme.SidebarWidth()
	m.sidebar.Height = bodyHeight
	m.inspector.Width = convWidth
	m.inspector.Height = bodyHeight
	m.help.Width = width

	inputWidth := width - 4 - len(m.input.Prompt) - 1
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
}

// refresh re-renders the conversation, applies a pending scroll target and
// measures the sentinel. A view that was at the bottom stays there while
// answers grow.
func (m *Model) refresh() tea.Cmd {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderConversation())

	if target, ok := m.ctrl.TakeScrollTarget(m.viewport.TotalLineCount()); ok {
		if target.Bottom {
			m.viewport.GotoBottom()
		} else {
			m.viewport.SetYOffset(target.Offset)
		}
	} else if atBottom {
		m.viewport.GotoBottom()
	}
	return m.measure()
}

// follow re-renders and pins the view to the newest message.
func (m *Model) follow() tea.Cmd {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
	return m.measure()
}

// measure reports the viewport geometry and fires the sentinel.
func (m *Model) measure() tea.Cmd {
	g := scroll.Geometry{
		Offset:        m.viewport.YOffset,
		ViewHeight:    m.viewport.Height,
		ContentHeight: m.viewport.TotalLineCount(),
	}
	m.ctrl.SetGeometry(g)
	m.watcher.Measure(g)
	return m.trigger.take()
}

func (m Model) hasAwaiting() bool {
	for _, msg := range m.ctrl.Messages() {
		if msg.IsAwaiting() {
			return true
		}
	}
	return m.ctrl.IsCreating() || m.ctrl.IsLoadingHistory()
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.ctrl.Tune(conversation.Tunables{
		SendTimeout:    cfg.SendTimeout(),
		RevealInterval: cfg.RevealInterval(),
		CardsDelay:     cfg.CardsDelay(),
		Cooldown:       cfg.Cooldown(),
	})
	m.sessions.SetPageSize(cfg.Paging.SessionPageSize)
	if m.hist != nil {
		m.hist.SetPageSize(cfg.Paging.MessagePageSize)
	}
	m.observe(cfg.Scroll.VisibilityThreshold, cfg.Scroll.MarginLines)
	m.md = components.NewMarkdown(m.theme.GlamourStyle(), cfg.UI.Markdown)
	m.showDates = cfg.UI.ShowDates
	m.listTimeout = cfg.ServerTimeout()
	m.setStatus("config reloaded")
	m.log.Info("applied reloaded config")
}

// =============================================================================
// STATUS
// =============================================================================

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.statusMsg = s
	m.statusErr = true
}

func describe(err error) string {
	switch {
	case errors.Is(err, api.ErrNotConfigured):
		return "no server configured"
	case errors.Is(err, api.ErrUnauthorized):
		return "not authorized"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	default:
		return err.Error()
	}
}

// Controller exposes the conversation controller, for tests and main.
func (m Model) Controller() *conversation.Controller {
	return m.ctrl
}
