// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// maxCachedRenders bounds the rendered-answer cache. Settled answers never
// change, so a hit is always valid.
const maxCachedRenders = 256

// Markdown renders settled answers with glamour. Renderers are built per
// wrap width and reused.
type Markdown struct {
	style   string
	enabled bool

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	cache     map[renderKey]string
}

type renderKey struct {
	width int
	text  string
}

// NewMarkdown creates a renderer using a glamour standard style ("dark",
// "light", "notty"). When enabled is false text is only wrapped.
func NewMarkdown(style string, enabled bool) *Markdown {
	return &Markdown{
		style:     style,
		enabled:   enabled,
		renderers: make(map[int]*glamour.TermRenderer),
		cache:     make(map[renderKey]string),
	}
}

// Enabled reports whether markdown rendering is on.
func (m *Markdown) Enabled() bool {
	return m != nil && m.enabled
}

// Render returns text rendered for width columns. Rendering errors fall back
// to plain wrapping; the answer is always shown.
func (m *Markdown) Render(text string, width int) string {
	if width < 10 {
		width = 10
	}
	if !m.Enabled() || strings.TrimSpace(text) == "" {
		return Wrap(text, width)
	}

	key := renderKey{width: width, text: text}
	m.mu.Lock()
	defer m.mu.Unlock()

	if out, ok := m.cache[key]; ok {
		return out
	}

	r, ok := m.renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return Wrap(text, width)
		}
		m.renderers[width] = r
	}

	out, err := r.Render(text)
	if err != nil {
		return Wrap(text, width)
	}
	out = strings.Trim(out, "\n")

	if len(m.cache) >= maxCachedRenders {
		m.cache = make(map[renderKey]string)
	}
	m.cache[key] = out
	return out
}

// Wrap word-wraps text to width columns.
func Wrap(text string, width int) string {
	if width < 1 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
