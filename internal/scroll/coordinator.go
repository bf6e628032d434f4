// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package scroll

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultCooldown absorbs layout reflow after a prepend before another load
// may start.
const DefaultCooldown = 300 * time.Millisecond

// State is the backpressure state.
type State int

const (
	Idle State = iota
	Loading
	Cooling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Cooling:
		return "cooling"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CooldownMsg ends a cooldown. Messages from a cooldown that was reset are
// ignored.
type CooldownMsg struct {
	Gen uint64
}

// Target is where the view should scroll after a page has been laid out.
type Target struct {
	Bottom bool
	Offset int
}

// PreserveOffset keeps the content that was under the viewport in place
// after newHeight-oldHeight lines were inserted above it.
func PreserveOffset(oldOffset, oldHeight, newHeight int) int {
	return oldOffset + (newHeight - oldHeight)
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator gates history loads and computes the scroll target after each.
//
//	Idle --Begin--> Loading --Finish--> Cooling --CooldownMsg--> Idle
//
// Begin only succeeds from Idle, so visibility events that arrive while a
// load is in flight or cooling down are dropped.
type Coordinator struct {
	state    State
	cooldown time.Duration
	anchor   Geometry
	first    bool
	gen      uint64
}

// NewCoordinator creates a coordinator for a freshly opened conversation.
func NewCoordinator(cooldown time.Duration) *Coordinator {
	if cooldown < 0 {
		cooldown = DefaultCooldown
	}
	return &Coordinator{cooldown: cooldown, first: true}
}

// SetCooldown changes the cooldown used by later Finish calls.
func (c *Coordinator) SetCooldown(d time.Duration) {
	if d >= 0 {
		c.cooldown = d
	}
}

// Begin starts a load, recording g as the anchor. It returns false when a
// load is already running or cooling down.
func (c *Coordinator) Begin(g Geometry) bool {
	if c.state != Idle {
		return false
	}
	c.state = Loading
	c.anchor = g
	return true
}

// Track moves the anchor to g while a load is in flight, so content that
// grows below the viewport before the page arrives (an answer being
// revealed, say) is not mistaken for prepended lines. Outside a load it does
// nothing.
func (c *Coordinator) Track(g Geometry) {
	if c.state == Loading {
		c.anchor = g
	}
}

// Settle returns the scroll target for content that is now newHeight lines
// tall. The first page of a conversation scrolls to the bottom; later pages
// keep the anchored content in place. The anchor is the last geometry seen
// before the page was inserted.
func (c *Coordinator) Settle(newHeight int) Target {
	if c.first {
		c.first = false
		return Target{Bottom: true}
	}
	return Target{Offset: PreserveOffset(c.anchor.Offset, c.anchor.ContentHeight, newHeight)}
}

// Finish ends the load, whether it succeeded or not, and starts the
// cooldown. The returned command delivers the CooldownMsg.
func (c *Coordinator) Finish() tea.Cmd {
	if c.state != Loading {
		return nil
	}
	c.state = Cooling
	gen := c.gen
	if c.cooldown == 0 {
		return func() tea.Msg { return CooldownMsg{Gen: gen} }
	}
	return tea.Tick(c.cooldown, func(time.Time) tea.Msg {
		return CooldownMsg{Gen: gen}
	})
}

// Update handles a CooldownMsg. It reports whether the coordinator re-armed.
func (c *Coordinator) Update(msg CooldownMsg) bool {
	if msg.Gen != c.gen || c.state != Cooling {
		return false
	}
	c.state = Idle
	return true
}

// Reset prepares for another conversation: back to Idle, next settle
// scrolls to the bottom, pending cooldowns are ignored.
func (c *Coordinator) Reset() {
	c.state = Idle
	c.first = true
	c.anchor = Geometry{}
	c.gen++
}

// State returns the backpressure state.
func (c *Coordinator) State() State {
	return c.state
}

// Anchor returns the geometry recorded by the last Begin.
func (c *Coordinator) Anchor() Geometry {
	return c.anchor
}

// FirstLoadPending reports whether the next Settle scrolls to the bottom.
func (c *Coordinator) FirstLoadPending() bool {
	return c.first
}
