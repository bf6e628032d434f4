// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/navi-tui/internal/answer"
	"github.com/jeranaias/navi-tui/internal/api"
	"github.com/jeranaias/navi-tui/internal/history"
	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/scroll"
	"github.com/jeranaias/navi-tui/internal/stream"
)

// SendErrorText replaces the answer of a send that failed.
const SendErrorText = "An error occurred while generating the answer. Please try again."

// Defaults for Options.
const (
	DefaultSendTimeout = 60 * time.Second
	DefaultCardsDelay  = 200 * time.Millisecond
)

// Sender submits a question and returns the raw answer payload.
type Sender interface {
	Send(ctx context.Context, sessionID, question string) (json.RawMessage, error)
}

// SessionCreator starts a new session seeded with its first question.
type SessionCreator interface {
	Create(ctx context.Context, question string) (string, error)
}

// HistoryLoader pages backwards through a session's messages.
type HistoryLoader interface {
	LoadOlder(ctx context.Context, sessionID string) (*history.Page, error)
	Reset(sessionID string)
	State(sessionID string) history.State
}

// Options configures a Controller.
type Options struct {
	SendTimeout    time.Duration
	RevealInterval time.Duration
	CardsDelay     time.Duration
	Cooldown       time.Duration
	Logger         logrus.FieldLogger

	// Now stamps placeholders. Defaults to time.Now.
	Now func() time.Time
}

// Tunables are the settings that may change while running.
type Tunables struct {
	SendTimeout    time.Duration
	RevealInterval time.Duration
	CardsDelay     time.Duration
	Cooldown       time.Duration
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives the active conversation. It must only be used from the
// Bubble Tea update loop.
type Controller struct {
	sender   Sender
	sessions SessionCreator
	history  HistoryLoader
	renderer *stream.Renderer
	coord    *scroll.Coordinator
	log      logrus.FieldLogger
	now      func() time.Time

	sendTimeout time.Duration
	cardsDelay  time.Duration

	sessionID string
	epoch     uint64
	messages  []model.Message
	latestID  int64
	localID   int64
	creating  bool
	cards     map[int64]bool
	geometry  scroll.Geometry
	settle    bool
	queued    []tea.Cmd
}

// New creates a controller with no session open.
func New(sender Sender, sessions SessionCreator, hist HistoryLoader, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sendTimeout := opts.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	cardsDelay := opts.CardsDelay
	if cardsDelay < 0 {
		cardsDelay = DefaultCardsDelay
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = scroll.DefaultCooldown
	}

	c := &Controller{
		sender:      sender,
		sessions:    sessions,
		history:     hist,
		coord:       scroll.NewCoordinator(cooldown),
		log:         logger.WithField("component", "conversation"),
		now:         now,
		sendTimeout: sendTimeout,
		cardsDelay:  cardsDelay,
		cards:       make(map[int64]bool),
	}
	c.renderer = stream.NewRenderer(stream.Options{
		Interval:  opts.RevealInterval,
		OnSettled: c.revealSettled,
	})
	return c
}

// Tune applies changed settings. Zero fields are left as they are.
func (c *Controller) Tune(t Tunables) {
	if t.SendTimeout > 0 {
		c.sendTimeout = t.SendTimeout
	}
	if t.RevealInterval > 0 {
		c.renderer.SetInterval(t.RevealInterval)
	}
	if t.CardsDelay > 0 {
		c.cardsDelay = t.CardsDelay
	}
	if t.Cooldown > 0 {
		c.coord.SetCooldown(t.Cooldown)
	}
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// Open switches to sessionID. All per-session state is discarded, reveal
// timers are cancelled, and the newest page of history is requested. Opening
// the session that is already open reloads it.
func (c *Controller) Open(sessionID string) tea.Cmd {
	c.clear()
	c.sessionID = sessionID
	c.history.Reset(sessionID)

	c.log.WithField("session_id", sessionID).Info("session opened")

	if !c.coord.Begin(c.geometry) {
		return nil
	}
	return c.loadCmd()
}

// NewChat closes the active session. The next question creates a session.
func (c *Controller) NewChat() {
	c.clear()
	c.sessionID = ""
}

// Close cancels every timer. Used when the view is torn down.
func (c *Controller) Close() {
	c.renderer.CancelAll()
	c.epoch++
}

func (c *Controller) clear() {
	c.renderer.CancelAll()
	if c.sessionID != "" {
		c.history.Reset(c.sessionID)
	}
	c.epoch++
	c.messages = nil
	c.latestID = 0
	c.creating = false
	c.cards = make(map[int64]bool)
	c.settle = false
	c.queued = nil
	c.coord.Reset()
}

// =============================================================================
// HISTORY
// =============================================================================

// SetGeometry records the current viewport geometry. The view calls it after
// every layout or scroll so a load can anchor on it.
func (c *Controller) SetGeometry(g scroll.Geometry) {
	c.geometry = g
	c.coord.Track(g)
}

// LoadOlder requests the page before the oldest loaded message. It is meant
// to be wired to the load sentinel becoming visible, and returns nil while a
// load is in flight, during the cooldown after one, or when there is no more
// history.
func (c *Controller) LoadOlder() tea.Cmd {
	if c.sessionID == "" {
		return nil
	}
	if !c.history.State(c.sessionID).HasNext {
		return nil
	}
	if !c.coord.Begin(c.geometry) {
		return nil
	}
	return c.loadCmd()
}

func (c *Controller) loadCmd() tea.Cmd {
	epoch := c.epoch
	sessionID := c.sessionID
	hist := c.history
	return func() tea.Msg {
		page, err := hist.LoadOlder(context.Background(), sessionID)
		return historyResultMsg{epoch: epoch, sessionID: sessionID, page: page, err: err}
	}
}

func (c *Controller) handleHistory(msg historyResultMsg) tea.Cmd {
	if msg.epoch != c.epoch {
		return nil
	}
	cooldown := c.coord.Finish()

	if msg.err != nil {
		c.log.WithError(msg.err).WithField("session_id", msg.sessionID).Warn("history load failed")
		return cooldown
	}
	if msg.page == nil {
		return cooldown
	}

	c.messages = model.Prepend(msg.page.Messages, c.messages)
	c.settle = true

	c.log.WithFields(logrus.Fields{
		"session_id": msg.sessionID,
		"count":      len(msg.page.Messages),
		"has_next":   msg.page.HasNext,
	}).Debug("history prepended")

	loaded := HistoryLoadedMsg{SessionID: msg.sessionID, Count: len(msg.page.Messages), First: msg.page.First}
	return tea.Batch(cooldown, func() tea.Msg { return loaded })
}

// TakeScrollTarget returns where to scroll after prepended history has been
// laid out at contentHeight lines. ok is false when nothing was prepended
// since the last call.
func (c *Controller) TakeScrollTarget(contentHeight int) (target scroll.Target, ok bool) {
	if !c.settle {
		return scroll.Target{}, false
	}
	c.settle = false
	return c.coord.Settle(contentHeight), true
}

// =============================================================================
// SENDING
// =============================================================================

// SendQuestion sends text in the active session. Blank input is ignored.
// Without an active session a new session is created from the question and
// opened.
func (c *Controller) SendQuestion(text string) tea.Cmd {
	question := norm.NFC.String(strings.TrimSpace(text))
	if question == "" {
		return nil
	}

	if c.sessionID == "" {
		if c.creating {
			return nil
		}
		c.creating = true
		return c.createCmd(question)
	}

	c.localID--
	id := c.localID
	c.messages = model.Append(c.messages, model.NewPendingMessage(id, c.sessionID, question, c.now()))
	c.latestID = id

	c.log.WithFields(logrus.Fields{"session_id": c.sessionID, "message_id": id}).Debug("question sent")
	return c.sendCmd(id, question)
}

func (c *Controller) sendCmd(id int64, question string) tea.Cmd {
	epoch := c.epoch
	sessionID := c.sessionID
	sender := c.sender
	timeout := c.sendTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		raw, err := sender.Send(ctx, sessionID, question)
		return answerResultMsg{epoch: epoch, sessionID: sessionID, id: id, raw: raw, err: err}
	}
}

func (c *Controller) createCmd(question string) tea.Cmd {
	epoch := c.epoch
	creator := c.sessions
	timeout := c.sendTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		id, err := creator.Create(ctx, question)
		return sessionResultMsg{epoch: epoch, question: question, sessionID: id, err: err}
	}
}

func (c *Controller) handleAnswer(msg answerResultMsg) tea.Cmd {
	if msg.epoch != c.epoch {
		return nil
	}
	idx := model.IndexOf(c.messages, msg.id)
	if idx < 0 {
		return nil
	}

	if msg.err != nil {
		c.fail(msg.id)
		logEntry := c.log.WithError(msg.err).WithFields(logrus.Fields{"session_id": msg.sessionID, "message_id": msg.id})
		if errors.Is(msg.err, api.ErrInvalidResponse) {
			logEntry.Error("send returned an invalid response")
			failed := SendFailedMsg{SessionID: msg.sessionID, MessageID: msg.id, Err: msg.err}
			return func() tea.Msg { return failed }
		}
		logEntry.Warn("send failed")
		return nil
	}

	res := answer.Classify(msg.raw)
	updated := c.messages[idx].Clone()
	updated.Answer = res.Text
	updated.RoleModels = res.RoleModels
	updated.LastActiveAt = model.NewTimestamp(c.now())
	c.messages = model.Replace(c.messages, msg.id, updated)

	cmd := c.renderer.Start(msg.id, answer.Sanitize(res.Text))
	return tea.Batch(append(c.drain(), cmd)...)
}

func (c *Controller) handleSession(msg sessionResultMsg) tea.Cmd {
	if msg.epoch != c.epoch {
		return nil
	}
	c.creating = false

	if msg.err != nil {
		c.log.WithError(msg.err).Warn("session create failed")
		// Show the question with the error inline, as a failed send would.
		c.localID--
		failed := model.NewPendingMessage(c.localID, "", msg.question, c.now())
		failed.Answer = SendErrorText
		failed.IsStreaming = false
		failed.Failed = true
		c.messages = model.Append(c.messages, failed)
		return nil
	}

	created := SessionCreatedMsg{SessionID: msg.sessionID, Question: msg.question}
	return tea.Batch(c.Open(msg.sessionID), func() tea.Msg { return created })
}

// fail settles a placeholder with the fixed error text.
func (c *Controller) fail(id int64) {
	c.renderer.Cancel(id)
	idx := model.IndexOf(c.messages, id)
	if idx < 0 {
		return
	}
	updated := c.messages[idx].Clone()
	updated.Answer = SendErrorText
	updated.RoleModels = nil
	updated.IsStreaming = false
	updated.Failed = true
	c.messages = model.Replace(c.messages, id, updated)
}

// =============================================================================
// REVEAL CALLBACKS
// =============================================================================

// revealSettled is the only place a sent message stops streaming.
func (c *Controller) revealSettled(id int64, _ string) {
	idx := model.IndexOf(c.messages, id)
	if idx < 0 {
		return
	}
	updated := c.messages[idx].Clone()
	updated.IsStreaming = false
	c.messages = model.Replace(c.messages, id, updated)

	if updated.HasRecommendations() && id == c.latestID {
		epoch := c.epoch
		c.queued = append(c.queued, tea.Tick(c.cardsDelay, func(time.Time) tea.Msg {
			return cardsDueMsg{epoch: epoch, id: id}
		}))
	}
}

func (c *Controller) drain() []tea.Cmd {
	cmds := c.queued
	c.queued = nil
	return cmds
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles the controller's own messages and returns follow-up
// commands. Other messages are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case historyResultMsg:
		return c.handleHistory(msg)
	case answerResultMsg:
		return c.handleAnswer(msg)
	case sessionResultMsg:
		return c.handleSession(msg)
	case stream.TickMsg:
		cmd := c.renderer.Update(msg)
		return tea.Batch(append(c.drain(), cmd)...)
	case scroll.CooldownMsg:
		c.coord.Update(msg)
		return nil
	case cardsDueMsg:
		if msg.epoch == c.epoch {
			c.cards[msg.id] = true
		}
		return nil
	}
	return nil
}

// SkipReveal shows the full answer of every message still being revealed.
func (c *Controller) SkipReveal() tea.Cmd {
	for _, m := range c.messages {
		if c.renderer.Active(m.MemberMessageID) {
			c.renderer.Skip(m.MemberMessageID)
		}
	}
	return tea.Batch(c.drain()...)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// SessionID returns the active session, or "".
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Messages returns the message list, oldest first. The slice must not be
// modified.
func (c *Controller) Messages() []model.Message {
	return c.messages
}

// Message returns the message with id.
func (c *Controller) Message(id int64) (model.Message, bool) {
	idx := model.IndexOf(c.messages, id)
	if idx < 0 {
		return model.Message{}, false
	}
	return c.messages[idx], true
}

// IsLatest reports whether id is the most recently sent message.
func (c *Controller) IsLatest(id int64) bool {
	return id != 0 && id == c.latestID
}

// Status returns the reveal phase of message id.
func (c *Controller) Status(id int64) stream.Phase {
	m, ok := c.Message(id)
	switch {
	case !ok:
		return stream.Settled
	case m.IsAwaiting():
		return stream.Pending
	case m.IsStreaming:
		return stream.Revealing
	default:
		return stream.Settled
	}
}

// VisibleAnswer returns the part of the answer to display right now,
// already sanitized.
func (c *Controller) VisibleAnswer(id int64) string {
	if visible, ok := c.renderer.Visible(id); ok {
		return visible
	}
	m, ok := c.Message(id)
	if !ok || m.IsStreaming {
		return ""
	}
	return answer.Sanitize(m.Answer)
}

// ShowCards reports whether the recommendation cards of id should be
// displayed. History messages show them at once; the latest sent message
// shows them a short delay after its reveal settles.
func (c *Controller) ShowCards(id int64) bool {
	m, ok := c.Message(id)
	if !ok || !m.HasRecommendations() || m.IsStreaming {
		return false
	}
	if id != c.latestID {
		return true
	}
	return c.cards[id]
}

// IsLoadingHistory reports whether a history load is in flight.
func (c *Controller) IsLoadingHistory() bool {
	return c.coord.State() == scroll.Loading
}

// HasOlder reports whether older history may exist.
func (c *Controller) HasOlder() bool {
	if c.sessionID == "" {
		return false
	}
	return c.history.State(c.sessionID).HasNext
}

// IsCreating reports whether a session is being created.
func (c *Controller) IsCreating() bool {
	return c.creating
}
