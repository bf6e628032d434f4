// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jeranaias/navi-tui/internal/api"
	"github.com/jeranaias/navi-tui/internal/config"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"list"},
			wantSub: "list",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"list", "--limit", "5"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("limit") != "5" {
					t.Errorf("Flag(limit) = %q, want %q", p.Flag("limit"), "5")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"list", "--limit=7"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("limit") != "7" {
					t.Errorf("Flag(limit) = %q, want %q", p.Flag("limit"), "7")
				}
			},
		},
		{
			name:    "explicit boolean",
			args:    []string{"list", "--all=false", "--json=true"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("all") {
					t.Error("BoolFlag(all) should be false")
				}
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be true")
				}
			},
		},
		{
			name:    "positional after subcommand",
			args:    []string{"delete", "42", "--confirm"},
			wantSub: "delete",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(1) != "42" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "42")
				}
				if !p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be true")
				}
			},
		},
		{
			name:    "multi word value",
			args:    []string{"set", "server.base_url", "http://a", "b"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				if got := strings.Join(p.PositionalFrom(2), " "); got != "http://a b" {
					t.Errorf("PositionalFrom(2) = %q", got)
				}
				if p.PositionalCount() != 4 {
					t.Errorf("PositionalCount() = %d, want 4", p.PositionalCount())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args)
			if parser.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", parser.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, parser)
			}
		})
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"flag present", []string{"list", "--limit", "10"}, 10},
		{"flag missing uses default", []string{"list"}, 5},
		{"invalid int uses default", []string{"list", "--limit", "abc"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewArgParser(tt.args).FlagIntOrDefault("limit", 5); got != tt.want {
				t.Errorf("FlagIntOrDefault = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArgParser_EdgeCases(t *testing.T) {
	empty := NewArgParser(nil)
	if empty.Subcommand() != "" || empty.PositionalCount() != 0 {
		t.Error("empty args should have no subcommand or positionals")
	}
	if empty.Positional(3) != "" || len(empty.PositionalFrom(1)) != 0 {
		t.Error("out of range positionals should be empty")
	}

	flags := NewArgParser([]string{"--verbose", "--json"})
	if flags.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", flags.Subcommand())
	}
	if !flags.HasFlag("--verbose") || flags.HasFlag("missing") {
		t.Error("HasFlag mismatch")
	}
	if flags.FlagOrDefault("missing", "x") != "x" {
		t.Error("FlagOrDefault should return default when missing")
	}
}

func TestParsePositiveInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{"", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePositiveInt(tt.in, "limit")
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePositiveInt(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePositiveInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no args starts tui",
			args:        nil,
			wantCommand: CmdTUI,
		},
		{
			name:        "ask joins query",
			args:        []string{"ask", "how", "do", "I", "start?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "how do I start?" {
					t.Errorf("Query = %q", a.Query)
				}
			},
		},
		{
			name:        "ask with session",
			args:        []string{"ask", "--session", "42", "and then?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.SessionID != "42" || a.Query != "and then?" {
					t.Errorf("SessionID = %q, Query = %q", a.SessionID, a.Query)
				}
			},
		},
		{
			name:        "bare question is ask",
			args:        []string{"What", "should", "I", "learn?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "What should I learn?" {
					t.Errorf("Query = %q, original case should be kept", a.Query)
				}
			},
		},
		{
			name:        "global flags anywhere",
			args:        []string{"sessions", "list", "--json", "--server", "http://x", "-q"},
			wantCommand: CmdSessions,
			validate: func(t *testing.T, a Args) {
				if !a.JSON || !a.Quiet || a.ServerURL != "http://x" {
					t.Errorf("globals not parsed: %+v", a)
				}
				if a.Subcommand != "list" {
					t.Errorf("Subcommand = %q, want list", a.Subcommand)
				}
			},
		},
		{
			name:        "config path flag",
			args:        []string{"--config=/tmp/n.toml", "config", "show"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.ConfigPath != "/tmp/n.toml" || a.Subcommand != "show" {
					t.Errorf("ConfigPath = %q, Subcommand = %q", a.ConfigPath, a.Subcommand)
				}
			},
		},
		{"chat", []string{"chat"}, CmdChat, nil},
		{"mock server", []string{"mock-server", "--addr", ":9"}, CmdMockServer, nil},
		{"version", []string{"version"}, CmdVersion, nil},
		{"help", []string{"--help"}, CmdHelp, nil},
		{"explicit tui", []string{"TUI"}, CmdTUI, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.args)
			if cmd != tt.wantCommand {
				t.Errorf("Parse(%v) = %v, want %v", tt.args, cmd, tt.wantCommand)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	if CmdMockServer.String() != "mock-server" || Command(99).String() != "unknown" {
		t.Error("Command.String mismatch")
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("limit", "x", "bad"), ExitUsageError},
		{"wrapped validation", fmt.Errorf("ctx: %w", ErrMissingArgument("id", "")), ExitUsageError},
		{"config", config.ValidateErrors{{Field: "server.base_url", Message: "bad"}}, ExitConfigError},
		{"not configured", api.ErrNotConfigured, ExitConfigError},
		{"unauthorized", NewCommandError("sessions", "list", "x", &api.Error{Status: 401}), ExitAuthError},
		{"not found", &api.Error{Status: 404}, ExitNotFoundError},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), ExitTimeoutError},
		{"generic", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestDisplayError(t *testing.T) {
	var text strings.Builder
	DisplayError(&text, errors.New("boom"), false)
	if !strings.Contains(text.String(), "[ERROR] boom") {
		t.Errorf("text output = %q", text.String())
	}

	var js strings.Builder
	DisplayError(&js, NewValidationError("limit", "0", "must be positive"), true)
	for _, want := range []string{`"error_type": "validation_error"`, `"field": "limit"`, `"exit_code": 2`} {
		if !strings.Contains(js.String(), want) {
			t.Errorf("json output missing %s:\n%s", want, js.String())
		}
	}
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkArgParser(b *testing.B) {
	args := []string{"list", "--limit", "10", "--all", "--json", "extra", "words"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}
