// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scroll decides when to load older history and keeps the view
// anchored while it is prepended.
//
// Visibility detection is behind the ViewportWatcher capability so the
// coordinator does not depend on how a platform learns that the load
// sentinel is on screen. LineWatcher is the terminal implementation; it is
// fed viewport geometry after every scroll or layout change.
package scroll

import "sort"

// Default visibility settings.
const (
	DefaultThreshold = 0.1
	DefaultMargin    = 2
)

// Geometry is the measured state of a scrollable view, in lines.
type Geometry struct {
	Offset        int // first visible content line
	ViewHeight    int
	ContentHeight int
}

// Sentinel is a span of content lines whose visibility triggers a load.
// The zero Height is treated as one line.
type Sentinel struct {
	Line   int
	Height int
}

// TopSentinel marks the first line of content, where older history begins.
var TopSentinel = Sentinel{Line: 0, Height: 1}

// ViewportWatcher reports when a sentinel becomes visible.
type ViewportWatcher interface {
	// Observe calls onVisible whenever target is considered visible.
	// The returned function stops observation.
	Observe(target Sentinel, onVisible func()) (unobserve func())
}

// =============================================================================
// LINE WATCHER
// =============================================================================

type observation struct {
	target    Sentinel
	onVisible func()
}

// LineWatcher implements ViewportWatcher from line geometry.
//
// The viewport is widened by Margin lines on both sides so a load starts
// slightly before the sentinel scrolls on screen. A sentinel is visible when
// the fraction of its lines inside the widened viewport reaches Threshold.
// Every Measure call fires the callbacks of all visible sentinels; callers
// rely on their own backpressure to ignore repeats.
//
// LineWatcher is not safe for concurrent use.
type LineWatcher struct {
	threshold float64
	margin    int
	nextID    int
	observers map[int]observation
	last      Geometry
}

// NewLineWatcher creates a watcher. A threshold outside (0, 1] and a
// negative margin fall back to the defaults.
func NewLineWatcher(threshold float64, margin int) *LineWatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if margin < 0 {
		margin = DefaultMargin
	}
	return &LineWatcher{
		threshold: threshold,
		margin:    margin,
		observers: make(map[int]observation),
	}
}

// Observe implements ViewportWatcher.
func (w *LineWatcher) Observe(target Sentinel, onVisible func()) func() {
	id := w.nextID
	w.nextID++
	w.observers[id] = observation{target: target, onVisible: onVisible}
	return func() { delete(w.observers, id) }
}

// Measure records g and notifies every visible sentinel, in registration
// order. It returns how many callbacks fired.
func (w *LineWatcher) Measure(g Geometry) int {
	w.last = g

	ids := make([]int, 0, len(w.observers))
	for id := range w.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fired := 0
	for _, id := range ids {
		obs, ok := w.observers[id]
		if !ok {
			// Unobserved by an earlier callback.
			continue
		}
		if w.Fraction(obs.target, g) >= w.threshold {
			fired++
			obs.onVisible()
		}
	}
	return fired
}

// Last returns the most recently measured geometry.
func (w *LineWatcher) Last() Geometry {
	return w.last
}

// Fraction returns how much of target lies inside the widened viewport,
// from 0 to 1.
func (w *LineWatcher) Fraction(target Sentinel, g Geometry) float64 {
	height := target.Height
	if height <= 0 {
		height = 1
	}
	top := g.Offset - w.margin
	bottom := g.Offset + g.ViewHeight + w.margin

	start := max(target.Line, top)
	end := min(target.Line+height, bottom)
	if end <= start {
		return 0
	}
	return float64(end-start) / float64(height)
}
