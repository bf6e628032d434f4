// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/navi-tui/internal/answer"
	"github.com/jeranaias/navi-tui/internal/config"
	"github.com/jeranaias/navi-tui/internal/history"
	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/session"
	"github.com/jeranaias/navi-tui/internal/ui/components"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
	"github.com/jeranaias/navi-tui/internal/util"
)

// =============================================================================
// COMMAND ENVIRONMENT
// =============================================================================

// Backend is the remote service as the line-oriented commands use it.
// *api.Client implements it.
type Backend interface {
	session.Service
	history.Service
	Send(ctx context.Context, sessionID, question string) (json.RawMessage, error)
}

// Env carries what command handlers need. main builds it once.
type Env struct {
	Config     *config.Config
	ConfigPath string // file config set writes to
	Backend    Backend
	Logger     logrus.FieldLogger
	Out        io.Writer
	Err        io.Writer

	// Width overrides terminal detection; tests set it.
	Width int
}

func (e *Env) width() int {
	if e.Width > 0 {
		return e.Width
	}
	return TerminalWidth()
}

func (e *Env) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

func (e *Env) sessionPager() *session.Pager {
	return session.NewPager(e.Backend, session.Options{
		PageSize: e.Config.Paging.SessionPageSize,
		Logger:   e.logger(),
	})
}

func (e *Env) historyPager() *history.Pager {
	return history.NewPager(e.Backend, history.Options{
		PageSize: e.Config.Paging.MessagePageSize,
		Logger:   e.logger(),
	})
}

// =============================================================================
// ANSWER OUTPUT
// =============================================================================

// answerPrinter writes settled answers the way the TUI shows them: markdown
// text followed by recommendation cards.
type answerPrinter struct {
	theme *styles.Theme
	md    *components.Markdown
	width int
}

func newAnswerPrinter(cfg *config.Config, width int) *answerPrinter {
	theme := styles.NewTheme(cfg.UI.Theme)
	markdown := cfg.UI.Markdown && ColorsEnabled()
	return &answerPrinter{
		theme: theme,
		md:    components.NewMarkdown(theme.GlamourStyle(), markdown),
		width: width,
	}
}

func (p *answerPrinter) print(w io.Writer, msg model.Message) {
	text := answer.Sanitize(msg.Answer)
	if msg.Failed {
		fmt.Fprintln(w, ErrorStyle.Render(text))
		return
	}
	fmt.Fprintln(w, strings.TrimRight(p.md.Render(text, p.width), "\n"))
	if cards := components.RenderCards(p.theme, msg.RoleModels, p.width); cards != "" {
		fmt.Fprintln(w, cards)
	}
}

// AnswerOutput is the --json form of an answered question.
type AnswerOutput struct {
	SessionID  string                      `json:"sessionId"`
	Question   string                      `json:"question"`
	Answer     string                      `json:"answer"`
	RoleModels []model.RecommendationEntry `json:"roleModels,omitempty"`
}

func answerOutput(sessionID, question string, res answer.Result) AnswerOutput {
	return AnswerOutput{
		SessionID:  sessionID,
		Question:   question,
		Answer:     answer.Sanitize(res.Text),
		RoleModels: res.RoleModels,
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// formatTimestamp renders a service timestamp for listings, falling back to
// the raw text when it could not be parsed.
func formatTimestamp(ts model.Timestamp) string {
	if ts.Time.IsZero() {
		return ts.String()
	}
	return ts.Time.Local().Format("2006-01-02 15:04")
}

// formatDuration renders an elapsed time compactly.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// sessionTitle is the one-line title shown in listings.
func sessionTitle(s model.Session, width int) string {
	return util.TruncateWidth(util.FirstLine(answer.Sanitize(s.DisplayTitle())), width)
}
