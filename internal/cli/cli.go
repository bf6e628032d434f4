// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and top-level command routing for navi.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdSessions
	CmdConfig
	CmdMockServer
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdSessions:
		return "sessions"
	case CmdConfig:
		return "config"
	case CmdMockServer:
		return "mock-server"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	ConfigPath string // --config FILE
	ServerURL  string // --server URL, overrides server.base_url

	// Command-specific
	Subcommand string
	Query      string
	SessionID  string // --session ID for ask

	// Raw args after the command name
	Raw []string
}

const usageText = `navi - terminal client for the NAVI career advice service

Usage:
  navi                          Start the TUI (default)
  navi ask [--session ID] "q"   Ask one question and print the answer
  navi chat                     Line-oriented interactive chat
  navi sessions [list|delete]   List or delete remote sessions
  navi config [show|get|set|path]
                                Inspect or change configuration
  navi mock-server [--addr A]   Run an in-memory NAVI backend for development
  navi version                  Show version information
  navi help                     Show this help

Sessions:
  navi sessions list            List sessions, newest first
    --limit N                   Stop after N sessions (default: 50)
    --all                       Page through every session
  navi sessions delete <id>     Delete a session
    --confirm                   Required confirmation flag

Mock server:
  navi mock-server              Serve the NAVI API from memory
    --addr ADDR                 Listen address (default: 127.0.0.1:8089)
    --seed                      Start with a few demo sessions
    --latency MS                Delay every answer by MS milliseconds
    --token T                   Require "Authorization: Bearer T"

Config:
  navi config show              Print the effective configuration
  navi config get <key>         Print one value (e.g. server.base_url)
  navi config set <key> <val>   Update a value and save the config file
  navi config path              Show the config file location

Global Flags:
  --config FILE                 Use FILE instead of ~/.navi/config.toml
  --server URL                  Override server.base_url
  --json                        Machine readable output where supported
  -q, --quiet                   Minimal output
  -v, --verbose                 Debug logging

Environment:
  NAVI_SERVER_URL, NAVI_TOKEN, NAVI_LOG_LEVEL, NAVI_MESSAGE_PAGE_SIZE,
  NAVI_SEND_TIMEOUT. A .env file in the working directory is loaded first.

Version: %s
`

// PrintUsage prints the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "navi version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// VersionInfo is the --json form of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// HandleVersion prints version information in text or JSON form.
func HandleVersion(w io.Writer, args Args) error {
	if !args.JSON {
		PrintVersion(w)
		return nil
	}
	return NewJSONResponse("version", VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}).Write(w)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses command-line arguments (without the program name) and
// returns the command and args.
func Parse(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	first := remaining[0]
	cmd := strings.ToLower(first)
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "ask", "a":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed

	case "chat":
		return CmdChat, parsed

	case "sessions", "session":
		parsed.Subcommand = NewArgParser(remaining).Subcommand()
		return CmdSessions, parsed

	case "config":
		parsed.Subcommand = NewArgParser(remaining).Subcommand()
		return CmdConfig, parsed

	case "mock-server", "mock":
		return CmdMockServer, parsed

	case "version", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		// A bare question is treated as ask.
		parsed.Raw = append([]string{first}, remaining...)
		parseAskArgs(&parsed, parsed.Raw)
		return CmdAsk, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--config":
			if i+1 < len(args) {
				i++
				parsed.ConfigPath = args[i]
			}
		case "--server":
			if i+1 < len(args) {
				i++
				parsed.ServerURL = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--config="):
				parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
			case strings.HasPrefix(arg, "--server="):
				parsed.ServerURL = strings.TrimPrefix(arg, "--server=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsed
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch {
		case arg == "-s" || arg == "--session":
			if i+1 < len(remaining) {
				i++
				args.SessionID = remaining[i]
			}
		case strings.HasPrefix(arg, "--session="):
			args.SessionID = strings.TrimPrefix(arg, "--session=")
		default:
			query = append(query, arg)
		}
	}

	args.Query = strings.Join(query, " ")
}
