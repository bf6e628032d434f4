// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultInterval is the delay between reveal steps.
const DefaultInterval = 10 * time.Millisecond

// TickMsg advances the reveal of one message. Gen identifies the timer that
// produced it; a tick whose timer has been cancelled or replaced is dropped.
type TickMsg struct {
	ID  int64
	Gen uint64
}

// Options configures a Renderer.
type Options struct {
	// Interval between reveal steps. Defaults to DefaultInterval.
	Interval time.Duration

	// OnProgress is called after every step with the visible prefix, so the
	// caller can keep growing content in view.
	OnProgress func(id int64, visible string)

	// OnSettled is called once when a reveal completes.
	OnSettled func(id int64, full string)
}

// handle is one active reveal timer.
type handle struct {
	gen    uint64
	reveal Reveal
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer owns the reveal timers of all in-flight messages.
//
// It is driven from the Bubble Tea update loop and is not safe for
// concurrent use. Timers are tracked in an explicit map from message id to
// handle, so cancelling a message is a map delete and any tick it had
// already scheduled finds no matching handle when it fires.
type Renderer struct {
	interval   time.Duration
	handles    map[int64]*handle
	gen        uint64
	onProgress func(id int64, visible string)
	onSettled  func(id int64, full string)
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Renderer{
		interval:   interval,
		handles:    make(map[int64]*handle),
		onProgress: opts.OnProgress,
		onSettled:  opts.OnSettled,
	}
}

// SetInterval changes the delay used for subsequently scheduled ticks.
func (r *Renderer) SetInterval(d time.Duration) {
	if d > 0 {
		r.interval = d
	}
}

// Interval returns the tick delay.
func (r *Renderer) Interval() time.Duration {
	return r.interval
}

// Start begins revealing text for message id, replacing any reveal already
// running for it. An empty text settles at once and returns nil.
func (r *Renderer) Start(id int64, text string) tea.Cmd {
	r.Cancel(id)

	r.gen++
	h := &handle{gen: r.gen}
	h.reveal.Start(text)

	if h.reveal.Phase() == Settled {
		r.settle(id, h)
		return nil
	}

	r.handles[id] = h
	return r.tick(id, h.gen)
}

// Update advances the reveal addressed by msg and schedules the next tick.
func (r *Renderer) Update(msg TickMsg) tea.Cmd {
	h, ok := r.handles[msg.ID]
	if !ok || h.gen != msg.Gen {
		return nil
	}

	h.reveal.Tick()
	if r.onProgress != nil {
		r.onProgress(msg.ID, h.reveal.Visible())
	}

	if h.reveal.Phase() == Settled {
		delete(r.handles, msg.ID)
		r.settle(msg.ID, h)
		return nil
	}
	return r.tick(msg.ID, h.gen)
}

// Skip completes the reveal for id immediately.
func (r *Renderer) Skip(id int64) {
	h, ok := r.handles[id]
	if !ok {
		return
	}
	delete(r.handles, id)
	h.reveal.Finish()
	if r.onProgress != nil {
		r.onProgress(id, h.reveal.Visible())
	}
	r.settle(id, h)
}

// Cancel stops the reveal for id without settling it.
func (r *Renderer) Cancel(id int64) {
	delete(r.handles, id)
}

// CancelAll stops every reveal. Used on session switch and teardown.
func (r *Renderer) CancelAll() {
	if len(r.handles) == 0 {
		return
	}
	r.handles = make(map[int64]*handle)
}

// Active reports whether id has a reveal running.
func (r *Renderer) Active(id int64) bool {
	_, ok := r.handles[id]
	return ok
}

// Len returns the number of running reveals.
func (r *Renderer) Len() int {
	return len(r.handles)
}

// Visible returns the revealed prefix for id while a reveal is running.
func (r *Renderer) Visible(id int64) (string, bool) {
	h, ok := r.handles[id]
	if !ok {
		return "", false
	}
	return h.reveal.Visible(), true
}

func (r *Renderer) settle(id int64, h *handle) {
	if r.onSettled != nil {
		r.onSettled(id, h.reveal.Full())
	}
}

func (r *Renderer) tick(id int64, gen uint64) tea.Cmd {
	return tea.Tick(r.interval, func(time.Time) tea.Msg {
		return TickMsg{ID: id, Gen: gen}
	})
}
