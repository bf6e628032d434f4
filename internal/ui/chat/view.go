// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/ui/components"
	"github.com/jeranaias/navi-tui/internal/util"
)

const (
	olderHint     = "↑ scroll up for older messages"
	loadingOlder  = "loading older messages"
	beginningHint = "beginning of conversation"
	welcomeText   = "Ask a question to start a new chat, or press Tab to pick an earlier one."
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "starting navi..."
	}

	var body string
	switch {
	case m.showHelp:
		m.help.ShowAll = true
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.help.View(m.keys))
	case m.inspector.Visible():
		body = m.joinSidebar(m.inspector.View())
	default:
		body = m.joinSidebar(m.viewport.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

func (m Model) joinSidebar(main string) string {
	if m.sidebar.Width <= 0 {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
}

func (m Model) renderHeader() string {
	title := "new chat"
	if id := m.ctrl.SessionID(); id != "" {
		title = id
		if s, ok := m.sessions.Find(id); ok {
			title = s.DisplayTitle()
		}
	}
	left := m.theme.HeaderTitle.Render("navi")
	right := util.TruncateWidth(title, m.width/2)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).MaxHeight(headerHeight).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.statusMsg != "" && m.statusErr:
		left = m.theme.StatusError.Render(m.statusMsg)
	case m.statusMsg != "":
		left = m.statusMsg
	case m.ctrl.IsCreating():
		left = m.spinner.View() + " creating chat"
	}

	m.help.ShowAll = false
	right := m.help.ShortHelpView(m.keys.ShortHelp())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return m.theme.StatusBar.Width(m.width).MaxHeight(statusHeight).Render(left)
	}
	return m.theme.StatusBar.Width(m.width).MaxHeight(statusHeight).
		Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// CONVERSATION
// =============================================================================

// renderConversation builds the viewport content. The first line is always
// the history sentinel row.
func (m Model) renderConversation() string {
	width := m.viewport.Width
	msgs := m.ctrl.Messages()

	var b strings.Builder
	b.WriteString(m.sentinelRow(width, len(msgs)))

	if len(msgs) == 0 && !m.ctrl.IsCreating() {
		b.WriteString("\n\n")
		b.WriteString(m.theme.Muted.Width(width).Align(lipgloss.Center).Render(welcomeText))
		return b.String()
	}

	var prev *model.Message
	for i := range msgs {
		msg := msgs[i]
		if m.showDates && components.NeedsSeparator(prev, msg, time.Local) {
			b.WriteString("\n")
			b.WriteString(components.DateSeparator(m.theme, msg.CreatedAt, width))
		}

		id := msg.MemberMessageID
		bubble := components.NewMessageBubble(msg, m.theme, m.md)
		bubble.Width = width
		bubble.Answer = m.ctrl.VisibleAnswer(id)
		bubble.Phase = m.ctrl.Status(id)
		bubble.ShowCards = m.ctrl.ShowCards(id)
		bubble.Spinner = m.spinner.View()

		b.WriteString("\n")
		b.WriteString(bubble.View())
		b.WriteString("\n")
		prev = &msgs[i]
	}

	if m.ctrl.IsCreating() {
		b.WriteString("\n")
		b.WriteString(m.theme.Generating.Render(m.spinner.View() + " creating chat"))
	}
	return b.String()
}

func (m Model) sentinelRow(width, count int) string {
	var text string
	switch {
	case m.ctrl.IsLoadingHistory():
		text = m.spinner.View() + " " + loadingOlder
	case m.ctrl.HasOlder():
		text = olderHint
	case count > 0:
		text = beginningHint
	}
	// Exactly one line, even when empty.
	return m.theme.LoadingOlder.Width(width).MaxHeight(1).Render(text)
}
