// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-oriented interactive chat for navi.
//
// Command: chat
// Short:   Interactive chat without the full-screen TUI
//
// The first question starts a new session unless one is opened with /open.
// Answers are printed once they arrive; there is no reveal animation.
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /new                Start a new session with the next question
//   /sessions, /ls      List recent sessions
//   /open <id|#n>       Open a session by id or by its number in /sessions
//   /history            Show older messages of the open session
//   /status, /s         Show the open session and counters
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the pending question (exit at the prompt)
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/navi-tui/internal/answer"
	"github.com/jeranaias/navi-tui/internal/config"
	"github.com/jeranaias/navi-tui/internal/conversation"
	"github.com/jeranaias/navi-tui/internal/history"
	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/session"
	"github.com/jeranaias/navi-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor whose history lives in historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line. Non-blank input is added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes input history owner read/write only.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// chatHistoryFile is ~/.navi/chat_history, or a temp file when the home
// directory is unknown.
func chatHistoryFile() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession is the state of one chat run. It is used from a single
// goroutine.
type ChatSession struct {
	env      *Env
	sessions *session.Pager
	history  *history.Pager
	printer  *answerPrinter
	quiet    bool

	sessionID string
	listed    []model.Session // last /sessions output, for /open #n

	started time.Time
	asked   int
	failed  int
}

// NewChatSession creates chat state with no session open.
func NewChatSession(env *Env, args Args) *ChatSession {
	return &ChatSession{
		env:      env,
		sessions: env.sessionPager(),
		history:  env.historyPager(),
		printer:  newAnswerPrinter(env.Config, env.width()),
		quiet:    args.Quiet,
		started:  time.Now(),
	}
}

// SessionID returns the open session, or "".
func (s *ChatSession) SessionID() string {
	return s.sessionID
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive loop until /quit, Ctrl+C at the prompt,
// or end of input.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	chat := NewChatSession(env, args)
	input := NewChatCLI(chatHistoryFile())
	defer input.Close()

	if !args.Quiet {
		chat.printWelcome()
	}

	for {
		line, err := input.ReadInput(PromptStyle.Render("navi› "))
		if err != nil {
			fmt.Fprintln(env.Out)
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				env.logger().WithError(err).Warn("chat input failed")
			}
			chat.printExitSummary()
			return nil
		}

		quit, err := chat.Handle(ctx, line)
		if err != nil {
			fmt.Fprintf(env.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		if quit {
			chat.printExitSummary()
			return nil
		}
	}
}

// Handle processes one line of input. quit is true when the user asked to
// leave.
func (s *ChatSession) Handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil
	case strings.HasPrefix(line, "/"):
		return s.handleSlashCommand(ctx, line)
	case strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit"):
		return true, nil
	}
	return false, s.ask(ctx, line)
}

// ask sends a question, creating a session first when none is open.
// Ctrl+C while waiting cancels the request.
func (s *ChatSession) ask(ctx context.Context, text string) error {
	question := norm.NFC.String(text)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, s.env.Config.SendTimeout())
	defer cancel()

	start := time.Now()
	s.asked++

	var (
		msg model.Message
		err error
	)
	if s.sessionID == "" {
		msg, err = s.startSession(ctx, question)
	} else {
		msg, err = s.send(ctx, question)
	}
	if err != nil {
		s.failed++
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(s.env.Out, WarningStyle.Render("[Cancelled]"))
			return nil
		}
		s.env.logger().WithError(err).WithField("session_id", s.sessionID).Warn("chat send failed")
		msg = model.Message{Question: question, Answer: conversation.SendErrorText, Failed: true}
	}

	s.printer.print(s.env.Out, msg)
	if !s.quiet && !msg.Failed {
		fmt.Fprintln(s.env.Out, DimStyle.Render(formatDuration(time.Since(start))))
	}
	fmt.Fprintln(s.env.Out)
	return nil
}

func (s *ChatSession) startSession(ctx context.Context, question string) (model.Message, error) {
	id, err := s.sessions.Create(ctx, question)
	if err != nil {
		return model.Message{}, err
	}
	s.sessionID = id

	page, err := s.history.LoadOlder(ctx, id)
	if err != nil {
		return model.Message{}, err
	}
	if page == nil || len(page.Messages) == 0 {
		return model.Message{}, fmt.Errorf("session %s has no messages", id)
	}
	if !s.quiet {
		fmt.Fprintln(s.env.Out, DimStyle.Render("started session "+id))
	}
	return page.Messages[len(page.Messages)-1], nil
}

func (s *ChatSession) send(ctx context.Context, question string) (model.Message, error) {
	raw, err := s.env.Backend.Send(ctx, s.sessionID, question)
	if err != nil {
		return model.Message{}, err
	}
	res := answer.Classify(raw)
	return model.Message{
		SessionID:  s.sessionID,
		Question:   question,
		Answer:     res.Text,
		RoleModels: res.RoleModels,
	}, nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (s *ChatSession) handleSlashCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		s.printHelp()
		return false, nil

	case "/new", "/n":
		s.sessionID = ""
		fmt.Fprintln(s.env.Out, SuccessStyle.Render("[New chat]")+" the next question starts a session")
		return false, nil

	case "/sessions", "/ls":
		return false, s.listSessions(ctx)

	case "/open", "/o":
		if len(args) == 0 {
			return false, ErrMissingArgument("session", "/open 42 or /open #1")
		}
		return false, s.open(ctx, args[0])

	case "/history":
		return false, s.loadOlder(ctx)

	case "/status", "/s":
		s.printStatus()
		return false, nil

	case "/quit", "/q", "/exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

func (s *ChatSession) listSessions(ctx context.Context) error {
	s.sessions.Reset()
	if err := s.sessions.FetchNextPage(ctx); err != nil {
		return err
	}
	s.listed = s.sessions.Sessions()
	if len(s.listed) == 0 {
		fmt.Fprintln(s.env.Out, DimStyle.Render("no sessions yet"))
		return nil
	}

	titleWidth := s.env.width() - 24
	for i, sess := range s.listed {
		marker := "  "
		if sess.SessionID == s.sessionID {
			marker = "• "
		}
		fmt.Fprintf(s.env.Out, "%s%s %s  %s\n",
			marker,
			PromptStyle.Render(fmt.Sprintf("#%-2d", i+1)),
			DimStyle.Render(util.PadRight(sess.SessionID, 8)),
			sessionTitle(sess, titleWidth))
	}
	if s.sessions.HasNext() {
		fmt.Fprintln(s.env.Out, DimStyle.Render("  … older sessions: navi sessions list --all"))
	}
	return nil
}

// open switches to a session and prints its newest page of history.
func (s *ChatSession) open(ctx context.Context, ref string) error {
	id := ref
	if strings.HasPrefix(ref, "#") {
		n, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
		if err != nil || n < 1 || n > len(s.listed) {
			return NewValidationError("session", ref, "no such entry in the last /sessions list")
		}
		id = s.listed[n-1].SessionID
	}

	s.history.Reset(id)
	page, err := s.history.LoadOlder(ctx, id)
	if err != nil {
		return err
	}
	s.sessionID = id

	fmt.Fprintln(s.env.Out, SuccessStyle.Render("[Opened]")+" session "+id)
	if page != nil {
		s.printMessages(page.Messages)
	}
	return nil
}

// loadOlder prints the page preceding what has been shown for the open
// session.
func (s *ChatSession) loadOlder(ctx context.Context) error {
	if s.sessionID == "" {
		return errors.New("no session open")
	}
	page, err := s.history.LoadOlder(ctx, s.sessionID)
	if err != nil {
		return err
	}
	if page == nil || len(page.Messages) == 0 {
		fmt.Fprintln(s.env.Out, DimStyle.Render("no older messages"))
		return nil
	}
	s.printMessages(page.Messages)
	return nil
}

func (s *ChatSession) printMessages(messages []model.Message) {
	for _, msg := range messages {
		fmt.Fprintln(s.env.Out, PromptStyle.Render("› ")+answer.Sanitize(msg.Question))
		s.printer.print(s.env.Out, msg)
		fmt.Fprintln(s.env.Out)
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *ChatSession) printWelcome() {
	out := s.env.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, TitleStyle.Render("navi chat"))
	fmt.Fprintln(out, RenderSeparator(30))
	fmt.Fprintln(out, RenderLabel("Server:", s.env.Config.Server.BaseURL))
	fmt.Fprintln(out)
	fmt.Fprintln(out, DimStyle.Render("Type a question and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(out)
}

func (s *ChatSession) printHelp() {
	out := s.env.Out
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new", "Start a new session with the next question"},
		{"/sessions, /ls", "List recent sessions"},
		{"/open <id|#n>", "Open a session"},
		{"/history", "Show older messages"},
		{"/status, /s", "Show session statistics"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, TitleStyle.Render("Available Commands"))
	for _, c := range commands {
		fmt.Fprintf(out, "  %s  %s\n", PromptStyle.Render(util.PadRight(c.cmd, 16)), DimStyle.Render(c.desc))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, DimStyle.Render("Tip: Ctrl+C cancels a pending question, Ctrl+D exits"))
	fmt.Fprintln(out)
}

func (s *ChatSession) printStatus() {
	out := s.env.Out
	id := s.sessionID
	if id == "" {
		id = "(none, next question starts one)"
	}
	fmt.Fprintln(out, RenderLabel("Session:", id))
	fmt.Fprintln(out, RenderLabel("Questions:", strconv.Itoa(s.asked)))
	fmt.Fprintln(out, RenderLabel("Failed:", strconv.Itoa(s.failed)))
	fmt.Fprintln(out, RenderLabel("Elapsed:", formatDuration(time.Since(s.started))))
	if s.sessionID != "" {
		st := s.history.State(s.sessionID)
		fmt.Fprintln(out, RenderLabel("Loaded:", fmt.Sprintf("%d messages (more: %t)", st.Loaded, st.HasNext)))
	}
}

func (s *ChatSession) printExitSummary() {
	if s.quiet {
		return
	}
	fmt.Fprintf(s.env.Out, "%s %d questions in %s\n",
		DimStyle.Render("Goodbye."), s.asked, formatDuration(time.Since(s.started)))
}
