// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of navi.
//
// # Key Types
//
//   - Command: the command selected on the command line
//   - Args: global flags plus command-specific values
//   - ArgParser: subcommand, flag and positional parsing shared by handlers
//   - Env: configuration, backend, logger and output streams for handlers
//   - ChatSession: state of the line-oriented chat loop
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(ctx, env, args)
//	case cli.CmdSessions:
//	    err = cli.HandleSessions(ctx, env, args)
//	}
//	os.Exit(cli.ExitCode(err))
//
// # Commands Overview
//
//   - tui (default): full-screen client, run by main
//   - ask: one question, answer printed to stdout
//   - chat: line editor REPL (peterh/liner) with slash commands
//   - sessions: list and delete remote sessions
//   - config: show, get, set, path
//   - mock-server: in-memory backend, run by main
//
// Every command accepts --json for machine readable output. Handlers return
// errors instead of printing them; ExitCode maps them to exit statuses.
package cli
