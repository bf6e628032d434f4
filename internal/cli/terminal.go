// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for navi's line-oriented commands.
//
// The TUI needs a terminal on stdin and stdout; chat only needs stdin.
// Colours are dropped when stdout is not a terminal or NO_COLOR is set.

package cli

import (
	"errors"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ErrNotATerminal is returned by commands that need an interactive terminal.
var ErrNotATerminal = errors.New("this command needs an interactive terminal")

// RequireTTY returns ErrNotATerminal when stdin or stdout is redirected.
func RequireTTY() error {
	if !IsTTY() || !IsStdoutTTY() {
		return ErrNotATerminal
	}
	return nil
}

// =============================================================================
// TERMINAL SIZE
// =============================================================================

const (
	// DefaultTerminalWidth is used when detection fails.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width used for wrapping.
	MinTerminalWidth = 40
)

// TerminalWidth returns the stdout width, or DefaultTerminalWidth.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOUR
// =============================================================================

// ColorsEnabled reports whether ANSI colours should be written to stdout.
// FORCE_COLOR wins over NO_COLOR, which wins over TTY detection.
func ColorsEnabled() bool {
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return IsStdoutTTY()
}

// ColorProfile returns the profile lipgloss should render with.
func ColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.NewOutput(os.Stdout).EnvColorProfile()
}
