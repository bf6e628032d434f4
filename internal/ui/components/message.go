// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/stream"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
)

// GeneratingText is shown until an answer arrives.
const GeneratingText = "generating answer..."

// revealCursor trails the visible text while an answer is being revealed.
const revealCursor = "▍"

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one exchange: the question, then the answer in
// whatever state it is in.
type MessageBubble struct {
	Message model.Message

	// Answer is the text to show right now; during a reveal it is the
	// revealed prefix.
	Answer string
	// Phase of the answer reveal.
	Phase stream.Phase
	// ShowCards draws the recommendation cards below the answer.
	ShowCards bool
	// Spinner is the current spinner frame for the waiting indicator.
	Spinner string
	// ShowTimestamp adds the send time above the question.
	ShowTimestamp bool

	Width int

	theme *styles.Theme
	md    *Markdown
}

// NewMessageBubble creates a bubble for msg. md may be nil.
func NewMessageBubble(msg model.Message, theme *styles.Theme, md *Markdown) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Answer:        msg.Answer,
		Phase:         stream.Settled,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
		md:            md,
	}
}

// View renders the bubble.
func (b *MessageBubble) View() string {
	parts := []string{b.renderQuestion()}
	if answer := b.renderAnswer(); answer != "" {
		parts = append(parts, answer)
	}
	if b.ShowCards && b.Message.HasRecommendations() {
		parts = append(parts, RenderCards(b.theme, b.Message.RoleModels, b.contentWidth()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *MessageBubble) contentWidth() int {
	w := b.Width - 8
	if w < 20 {
		w = 20
	}
	return w
}

// ==========================================================================
// QUESTION - right aligned
// ==========================================================================

func (b *MessageBubble) renderQuestion() string {
	text := Wrap(b.Message.Question, b.contentWidth()-4)
	bubble := b.theme.QuestionBubble.Render(text)

	header := b.theme.Muted.Render("you")
	if b.ShowTimestamp {
		if ts := formatTime(b.Message.CreatedAt); ts != "" {
			header += " " + b.theme.Muted.Render(ts)
		}
	}

	block := lipgloss.JoinVertical(lipgloss.Right, header, bubble)
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
}

// ==========================================================================
// ANSWER - left aligned
// ==========================================================================

func (b *MessageBubble) renderAnswer() string {
	width := b.contentWidth() - 4
	header := b.theme.Muted.Render("navi")

	switch {
	case b.Message.Failed:
		return lipgloss.JoinVertical(lipgloss.Left, header,
			b.theme.FailedBubble.Render(Wrap(b.Answer, width)))

	case b.Message.IsAwaiting():
		indicator := strings.TrimSpace(b.Spinner + " " + GeneratingText)
		return lipgloss.JoinVertical(lipgloss.Left, header, b.theme.Generating.Render(indicator))

	case b.Phase == stream.Revealing:
		return lipgloss.JoinVertical(lipgloss.Left, header,
			b.theme.AnswerBubble.Render(Wrap(b.Answer+revealCursor, width)))

	case b.Answer == "":
		return ""

	default:
		var body string
		if b.md.Enabled() {
			body = b.md.Render(b.Answer, width)
		} else {
			body = Wrap(b.Answer, width)
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, b.theme.AnswerBubble.Render(body))
	}
}

func formatTime(ts model.Timestamp) string {
	if ts.Time.IsZero() {
		return ""
	}
	return ts.Time.Local().Format("15:04")
}

// =============================================================================
// DATE SEPARATOR
// =============================================================================

// DateSeparator renders a centered "── Mon, Jan 2 2006 ──" rule.
func DateSeparator(theme *styles.Theme, ts model.Timestamp, width int) string {
	label := ts.String()
	if !ts.Time.IsZero() {
		label = ts.Time.Local().Format("Mon, Jan 2 2006")
	}
	rule := strings.Repeat("─", 3)
	return theme.DateSeparator.Width(width).Render(rule + " " + label + " " + rule)
}

// NeedsSeparator reports whether a date separator belongs between prev and
// next. The first message always gets one.
func NeedsSeparator(prev *model.Message, next model.Message, loc *time.Location) bool {
	if prev == nil {
		return true
	}
	if prev.CreatedAt.Time.IsZero() || next.CreatedAt.Time.IsZero() {
		return false
	}
	return !prev.CreatedAt.SameDay(next.CreatedAt, loc)
}
