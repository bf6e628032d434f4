// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across navi.
//
// # Key Functions
//
// Display Width:
//   - TruncateWidth: Fit a string into a number of terminal columns
//   - PadRight: Pad a string to a number of terminal columns
//   - FirstLine: First non-blank line of a text, for previews
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateWidth(session.DisplayTitle(), 24)
//	err := util.AtomicWriteFile(path, data, 0o600)
package util
