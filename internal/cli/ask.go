// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask [--session ID] <question>
//
// Without --session a new session is created from the question; the service
// answers the seed question itself, so the answer is read back from the
// session's newest history page. With --session the question is sent to the
// existing session.
//
// Examples:
//   navi ask "how do I become a data engineer?"
//   navi ask --session 42 "what about without a degree?"
//   navi ask --json "which roles fit a physics graduate?"

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/navi-tui/internal/answer"
	"github.com/jeranaias/navi-tui/internal/model"
)

// HandleAsk answers a single question and prints the answer.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	question := norm.NFC.String(strings.TrimSpace(args.Query))
	if question == "" {
		return ErrMissingArgument("question", `navi ask "how do I become a data engineer?"`)
	}

	ctx, cancel := context.WithTimeout(ctx, env.Config.SendTimeout())
	defer cancel()

	start := time.Now()
	var (
		sessionID = args.SessionID
		msg       model.Message
		err       error
	)
	if sessionID == "" {
		sessionID, msg, err = askNewSession(ctx, env, question)
	} else {
		msg, err = askInSession(ctx, env, sessionID, question)
	}
	if err != nil {
		return NewCommandError("ask", "send", "no answer", err)
	}

	env.logger().WithFields(logrus.Fields{
		"session_id": sessionID,
		"duration":   time.Since(start).String(),
	}).Info("ask answered")

	if args.JSON {
		res := answer.Result{Text: msg.Answer, RoleModels: msg.RoleModels}
		return NewJSONResponse("ask", answerOutput(sessionID, question, res)).Write(env.Out)
	}

	newAnswerPrinter(env.Config, env.width()).print(env.Out, msg)
	if !args.Quiet {
		fmt.Fprintln(env.Out, DimStyle.Render(fmt.Sprintf("session %s · %s", sessionID, formatDuration(time.Since(start)))))
	}
	return nil
}

// askNewSession creates a session and returns its seed exchange.
func askNewSession(ctx context.Context, env *Env, question string) (string, model.Message, error) {
	sessionID, err := env.sessionPager().Create(ctx, question)
	if err != nil {
		return "", model.Message{}, err
	}

	page, err := env.historyPager().LoadOlder(ctx, sessionID)
	if err != nil {
		return sessionID, model.Message{}, err
	}
	if page == nil || len(page.Messages) == 0 {
		return sessionID, model.Message{}, fmt.Errorf("session %s has no messages", sessionID)
	}
	return sessionID, page.Messages[len(page.Messages)-1], nil
}

// askInSession sends question to an existing session.
func askInSession(ctx context.Context, env *Env, sessionID, question string) (model.Message, error) {
	raw, err := env.Backend.Send(ctx, sessionID, question)
	if err != nil {
		return model.Message{}, err
	}
	res := answer.Classify(raw)
	return model.Message{
		SessionID:  sessionID,
		Question:   question,
		Answer:     res.Text,
		RoleModels: res.RoleModels,
		CreatedAt:  model.NewTimestamp(time.Now()),
	}, nil
}
