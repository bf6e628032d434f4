// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE INSPECTOR
// =============================================================================

// Inspector overlays the selected message as highlighted JSON. It is how
// a user sees the structured recommendation payload behind a card.
type Inspector struct {
	theme *styles.Theme

	visible bool
	title   string
	lines   []string
	offset  int

	Width  int
	Height int
}

// NewInspector creates a hidden inspector.
func NewInspector(theme *styles.Theme) *Inspector {
	return &Inspector{theme: theme, Width: 80, Height: 20}
}

// Open shows msg.
func (i *Inspector) Open(msg model.Message) {
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		data = []byte(err.Error())
	}
	i.title = "message " + msg.SessionID
	i.lines = strings.Split(Highlight(string(data), "json", i.theme.ChromaStyle()), "\n")
	i.offset = 0
	i.visible = true
}

// Close hides the inspector.
func (i *Inspector) Close() { i.visible = false }

// Visible reports whether the inspector is shown.
func (i *Inspector) Visible() bool { return i.visible }

// ScrollUp moves the view up n lines.
func (i *Inspector) ScrollUp(n int) {
	i.offset -= n
	if i.offset < 0 {
		i.offset = 0
	}
}

// ScrollDown moves the view down n lines.
func (i *Inspector) ScrollDown(n int) {
	i.offset += n
	if limit := len(i.lines) - i.bodyHeight(); i.offset > limit {
		i.offset = limit
	}
	if i.offset < 0 {
		i.offset = 0
	}
}

func (i *Inspector) bodyHeight() int {
	h := i.Height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the inspector, or "" when hidden.
func (i *Inspector) View() string {
	if !i.visible {
		return ""
	}
	end := i.offset + i.bodyHeight()
	if end > len(i.lines) {
		end = len(i.lines)
	}
	body := strings.Join(i.lines[i.offset:end], "\n")
	content := lipgloss.JoinVertical(lipgloss.Left,
		i.theme.InspectorTitle.Render(i.title)+"  "+i.theme.Muted.Render("esc close · ↑/↓ scroll"),
		body,
	)
	return i.theme.Inspector.Width(i.Width - 2).MaxHeight(i.Height).Render(content)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// Highlight colors code for a 256-color terminal. It returns code unchanged
// when highlighting fails.
func Highlight(code, language, style string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code
	}
	return buf.String()
}
