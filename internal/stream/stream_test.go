// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"testing"
	"time"
)

// =============================================================================
// REVEAL TESTS
// =============================================================================

func TestReveal_ZeroValueIsPending(t *testing.T) {
	var r Reveal
	if r.Phase() != Pending {
		t.Errorf("Phase() = %v, want pending", r.Phase())
	}
	if r.Tick() {
		t.Error("Tick on a pending reveal should not change anything")
	}
	if r.Visible() != "" {
		t.Errorf("Visible() = %q, want empty", r.Visible())
	}
}

func TestReveal_OneCodePointPerTick(t *testing.T) {
	var r Reveal
	r.Start("héllo🙂")

	want := []string{"h", "hé", "hél", "héll", "héllo", "héllo🙂"}
	for i, w := range want {
		if !r.Tick() {
			t.Fatalf("tick %d reported no change", i+1)
		}
		if got := r.Visible(); got != w {
			t.Errorf("after tick %d Visible() = %q, want %q", i+1, got, w)
		}
	}
	if r.Phase() != Settled {
		t.Errorf("Phase() = %v, want settled", r.Phase())
	}
	if r.Tick() {
		t.Error("Tick after settling should not change anything")
	}
}

func TestReveal_EmptySettlesImmediately(t *testing.T) {
	var r Reveal
	r.Start("")
	if r.Phase() != Settled {
		t.Errorf("Phase() = %v, want settled", r.Phase())
	}
	shown, total := r.Progress()
	if shown != 0 || total != 0 {
		t.Errorf("Progress() = %d/%d, want 0/0", shown, total)
	}
}

func TestReveal_StartIgnoredOnceStarted(t *testing.T) {
	var r Reveal
	r.Start("abc")
	r.Tick()
	r.Start("something else")
	if r.Full() != "abc" {
		t.Errorf("Full() = %q, want abc", r.Full())
	}
}

func TestReveal_Finish(t *testing.T) {
	var r Reveal
	r.Start("abcdef")
	r.Tick()
	r.Finish()
	if r.Visible() != "abcdef" || r.Phase() != Settled {
		t.Errorf("after Finish: %q %v", r.Visible(), r.Phase())
	}
}

// =============================================================================
// RENDERER TESTS
// =============================================================================

type recorder struct {
	progress []string
	settled  map[int64]string
}

func newRecorder() *recorder {
	return &recorder{settled: make(map[int64]string)}
}

func (rec *recorder) options() Options {
	return Options{
		Interval:   time.Millisecond,
		OnProgress: func(id int64, visible string) { rec.progress = append(rec.progress, visible) },
		OnSettled:  func(id int64, full string) { rec.settled[id] = full },
	}
}

func TestRenderer_TenCharactersInTenTicks(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec.options())

	if cmd := r.Start(1, "0123456789"); cmd == nil {
		t.Fatal("Start should schedule a tick")
	}

	ticks := 0
	for r.Active(1) {
		ticks++
		if ticks > 10 {
			t.Fatal("reveal did not settle within 10 ticks")
		}
		cmd := r.Update(TickMsg{ID: 1, Gen: r.gen})
		if r.Active(1) && cmd == nil {
			t.Fatalf("tick %d did not schedule the next tick", ticks)
		}
	}

	if ticks != 10 {
		t.Errorf("settled after %d ticks, want 10", ticks)
	}
	if got := rec.settled[1]; got != "0123456789" {
		t.Errorf("OnSettled full = %q", got)
	}
	if len(rec.progress) != 10 || rec.progress[4] != "01234" {
		t.Errorf("progress callbacks = %v", rec.progress)
	}
}

func TestRenderer_NoMutationAfterCancel(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec.options())

	r.Start(7, "0123456789")
	gen := r.gen
	for i := 0; i < 4; i++ {
		r.Update(TickMsg{ID: 7, Gen: gen})
	}
	before := len(rec.progress)

	r.CancelAll()

	for i := 0; i < 10; i++ {
		if cmd := r.Update(TickMsg{ID: 7, Gen: gen}); cmd != nil {
			t.Error("tick after cancel scheduled another tick")
		}
	}
	if len(rec.progress) != before {
		t.Errorf("progress advanced after cancel: %d -> %d", before, len(rec.progress))
	}
	if _, ok := rec.settled[7]; ok {
		t.Error("cancelled reveal settled")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after CancelAll", r.Len())
	}
}

func TestRenderer_RestartDropsOldTicks(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec.options())

	r.Start(1, "aaaa")
	oldGen := r.gen
	r.Start(1, "bb")

	if cmd := r.Update(TickMsg{ID: 1, Gen: oldGen}); cmd != nil {
		t.Error("stale generation advanced the reveal")
	}
	if v, _ := r.Visible(1); v != "" {
		t.Errorf("Visible() = %q, want empty", v)
	}
}

func TestRenderer_IndependentMessages(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec.options())

	r.Start(1, "abc")
	g1 := r.gen
	r.Start(2, "xy")
	g2 := r.gen

	// Interleave ticks out of order.
	r.Update(TickMsg{ID: 2, Gen: g2})
	r.Update(TickMsg{ID: 1, Gen: g1})
	r.Update(TickMsg{ID: 2, Gen: g2})

	if rec.settled[2] != "xy" {
		t.Errorf("message 2 settled with %q", rec.settled[2])
	}
	if v, ok := r.Visible(1); !ok || v != "a" {
		t.Errorf("message 1 Visible() = %q, %v", v, ok)
	}
}

func TestRenderer_EmptyTextSettlesWithoutTick(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec.options())

	if cmd := r.Start(3, ""); cmd != nil {
		t.Error("empty text should not schedule a tick")
	}
	if full, ok := rec.settled[3]; !ok || full != "" {
		t.Errorf("OnSettled not called for empty text")
	}
}

func TestRenderer_Skip(t *testing.T) {
	rec := newRecorder()
	r := NewRenderer(rec.options())

	r.Start(1, "long answer")
	r.Skip(1)

	if r.Active(1) {
		t.Error("Skip left the reveal running")
	}
	if rec.settled[1] != "long answer" {
		t.Errorf("settled = %q", rec.settled[1])
	}
}

func TestRenderer_TickCommandProducesTickMsg(t *testing.T) {
	r := NewRenderer(Options{Interval: time.Millisecond})
	cmd := r.Start(5, "ab")

	msg, ok := cmd().(TickMsg)
	if !ok {
		t.Fatalf("command produced %T, want TickMsg", cmd())
	}
	if msg.ID != 5 || msg.Gen != r.gen {
		t.Errorf("TickMsg = %+v", msg)
	}
}

func TestNewRenderer_DefaultInterval(t *testing.T) {
	r := NewRenderer(Options{})
	if r.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", r.Interval(), DefaultInterval)
	}
	r.SetInterval(-1)
	if r.Interval() != DefaultInterval {
		t.Error("negative interval should be ignored")
	}
}
