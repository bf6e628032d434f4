// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the navi TUI.
//
// Components are plain structs with a View method. They hold no async state;
// the chat model owns the conversation controller and feeds components the
// values they draw.
//
// # Components
//
//   - MessageBubble: One question and its answer, with the reveal cursor,
//     the "generating answer" indicator and recommendation cards
//   - Markdown: Cached glamour renderer for settled answers
//   - Sidebar: Paged session list with selection
//   - Inspector: Syntax highlighted JSON view of a message
//
// # Usage
//
//	bubble := components.NewMessageBubble(msg, theme, md)
//	bubble.Answer = ctrl.VisibleAnswer(msg.MemberMessageID)
//	bubble.Phase = ctrl.Status(msg.MemberMessageID)
//	out := bubble.View()
package components
