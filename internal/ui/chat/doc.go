// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the root Bubble Tea model of the navi TUI.
//
// The model lays out the session sidebar, the conversation viewport and the
// question input, and routes messages between them. Conversation state lives
// in a conversation.Controller; the model only draws it and reports the
// viewport geometry back.
//
// # Loading Older History
//
// Line 0 of the conversation content is a sentinel row. After every layout
// or scroll the model measures the viewport with a scroll.LineWatcher; when
// the sentinel is visible the controller is asked for the previous page.
// Once a page is prepended the controller supplies the offset that keeps
// the same messages on screen.
//
// # Key Bindings
//
//   - Enter: Send the question (or open the selected chat in the sidebar)
//   - Tab: Move focus between the input and the sidebar
//   - Ctrl+N: Start a new chat
//   - Esc: Show the rest of an answer being revealed, or close an overlay
//   - Ctrl+O: Inspect the latest message as JSON
//   - PgUp/PgDn, mouse wheel: Scroll the conversation
//   - F1: Toggle help
//   - Ctrl+C: Quit
package chat
