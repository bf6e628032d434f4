// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer turns raw answer payloads into displayable results.
package answer

import "strings"

// escapedNewline is the two-character sequence backslash + n.
const escapedNewline = `\n`

// Sanitize prepares question or answer text for display: one surrounding
// pair of double quotes is removed and escaped newlines become real ones.
func Sanitize(text string) string {
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = text[1 : len(text)-1]
	}
	return strings.ReplaceAll(text, escapedNewline, "\n")
}
