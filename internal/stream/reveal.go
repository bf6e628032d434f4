// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream replays a complete answer one character at a time.
//
// The service returns an answer in a single response. To give the user a
// sense of the answer being written, the client reveals it incrementally:
// every tick lengthens the visible prefix by one code point until the whole
// answer is shown.
//
// Reveal is the per-message state machine. Renderer owns one Reveal per
// in-flight message, keyed by message id, and schedules ticks through
// Bubble Tea.
package stream

import "fmt"

// =============================================================================
// PHASE
// =============================================================================

// Phase is the reveal state of one message.
type Phase int

const (
	// Pending means the answer has not arrived yet.
	Pending Phase = iota
	// Revealing means a growing prefix of the answer is shown.
	Revealing
	// Settled means the full answer is shown and will not change.
	Settled
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Revealing:
		return "revealing"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// =============================================================================
// REVEAL
// =============================================================================

// Reveal tracks how much of one answer is visible. The zero value is Pending.
type Reveal struct {
	runes []rune
	shown int
	phase Phase
}

// Start supplies the full answer. An empty answer settles immediately.
// Calling Start on a Revealing or Settled reveal has no effect.
func (r *Reveal) Start(full string) {
	if r.phase != Pending {
		return
	}
	r.runes = []rune(full)
	r.shown = 0
	if len(r.runes) == 0 {
		r.phase = Settled
		return
	}
	r.phase = Revealing
}

// Tick reveals one more code point. It reports whether anything changed.
func (r *Reveal) Tick() bool {
	if r.phase != Revealing {
		return false
	}
	r.shown++
	if r.shown >= len(r.runes) {
		r.shown = len(r.runes)
		r.phase = Settled
	}
	return true
}

// Finish jumps straight to Settled with the full answer visible.
func (r *Reveal) Finish() {
	if r.phase != Revealing {
		return
	}
	r.shown = len(r.runes)
	r.phase = Settled
}

// Phase returns the current phase.
func (r *Reveal) Phase() Phase {
	return r.phase
}

// Visible returns the revealed prefix.
func (r *Reveal) Visible() string {
	return string(r.runes[:r.shown])
}

// Full returns the complete answer, or "" while Pending.
func (r *Reveal) Full() string {
	return string(r.runes)
}

// Progress returns the revealed and total code point counts.
func (r *Reveal) Progress() (shown, total int) {
	return r.shown, len(r.runes)
}
