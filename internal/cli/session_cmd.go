// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - Remote session listing and deletion.
//
// Command: sessions [subcommand]
// Aliases: session
//
// Subcommands:
//   list (default)      List sessions, newest first (aliases: ls)
//   delete <id>         Delete a session (aliases: rm)
//
// Flags:
//   --limit N           Stop listing after N sessions (default: 50)
//   --all               List every session
//   --confirm           Required for delete
//   --json              Output in JSON format

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/util"
)

// DefaultListLimit bounds sessions list without --all.
const DefaultListLimit = 50

// SessionListOutput is the --json form of sessions list.
type SessionListOutput struct {
	Sessions []model.Session `json:"sessions"`
	Count    int             `json:"count"`
	HasMore  bool            `json:"hasMore"`
}

// HandleSessions dispatches the sessions subcommands.
func HandleSessions(ctx context.Context, env *Env, args Args) error {
	parser := NewArgParser(args.Raw)
	jsonMode := args.JSON || parser.BoolFlag("json")

	switch parser.Subcommand() {
	case "", "list", "ls":
		limit := DefaultListLimit
		if parser.BoolFlag("all") {
			limit = 0
		} else if parser.HasFlag("limit") {
			n, err := ParsePositiveInt(parser.Flag("limit"), "limit")
			if err != nil {
				return err
			}
			limit = n
		}
		return listSessions(ctx, env, limit, jsonMode)

	case "delete", "rm":
		id := parser.Positional(1)
		if id == "" {
			return ErrMissingArgument("session id", "navi sessions delete <id> --confirm")
		}
		if !parser.BoolFlag("confirm") {
			return NewValidationError("confirm", "", "deleting a session needs --confirm")
		}
		return deleteSession(ctx, env, id, jsonMode)

	default:
		return NewValidationError("subcommand", parser.Subcommand(), "expected list or delete")
	}
}

// listSessions pages through the session list until limit entries are
// collected (0 means all) or the service runs out.
func listSessions(ctx context.Context, env *Env, limit int, jsonMode bool) error {
	pager := env.sessionPager()

	for pager.HasNext() && (limit == 0 || len(pager.Sessions()) < limit) {
		before := len(pager.Sessions())
		if err := pager.FetchNextPage(ctx); err != nil {
			return NewCommandError("sessions", "list", "could not fetch sessions", err)
		}
		if len(pager.Sessions()) == before && pager.HasNext() {
			break
		}
	}

	sessions := pager.Sessions()
	hasMore := pager.HasNext()
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
		hasMore = true
	}

	if jsonMode {
		return NewJSONResponse("sessions list", SessionListOutput{
			Sessions: sessions,
			Count:    len(sessions),
			HasMore:  hasMore,
		}).Write(env.Out)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("No sessions yet. Start one with: navi ask \"your question\""))
		return nil
	}

	width := env.width()
	idWidth := 4
	for _, s := range sessions {
		if w := util.StringWidth(s.SessionID); w > idWidth {
			idWidth = w
		}
	}
	titleWidth := width - idWidth - 16 - 4
	if titleWidth < 10 {
		titleWidth = 10
	}

	fmt.Fprintln(env.Out, TitleStyle.Render("Sessions"))
	fmt.Fprintln(env.Out, RenderSeparator(min(width, 60)))
	for _, s := range sessions {
		fmt.Fprintf(env.Out, "%s  %s  %s\n",
			PromptStyle.Render(util.PadRight(s.SessionID, idWidth)),
			DimStyle.Render(util.PadRight(formatTimestamp(s.CreatedAt), 16)),
			sessionTitle(s, titleWidth))
	}
	if hasMore {
		fmt.Fprintln(env.Out, DimStyle.Render("more sessions available, use --all to list everything"))
	}
	return nil
}

func deleteSession(ctx context.Context, env *Env, id string, jsonMode bool) error {
	if err := env.sessionPager().Delete(ctx, id); err != nil {
		return NewCommandError("sessions", "delete", "could not delete "+id, err)
	}

	if jsonMode {
		return NewJSONResponse("sessions delete", map[string]string{"sessionId": id}).Write(env.Out)
	}
	fmt.Fprintf(env.Out, "%s session %s deleted\n", SuccessStyle.Render("[OK]"), id)
	return nil
}
