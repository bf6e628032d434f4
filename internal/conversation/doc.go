// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation orchestrates one open chat session.
//
// The Controller owns the message list of the active session, the reveal
// timers of in-flight answers and the history backpressure state. It runs on
// the Bubble Tea update loop: every asynchronous result comes back as a
// tea.Msg through Update, stamped with the session epoch that was current
// when the work started. Switching sessions bumps the epoch, so results that
// arrive for a session the user has left are discarded.
//
// # Message list
//
// The list is never edited in place. Every change produces a new slice with
// one entry replaced, a batch prepended or one entry appended, so a slice
// handed to the view stays valid.
//
// # Send flow
//
//  1. SendQuestion appends a placeholder (empty answer, streaming).
//  2. The Sender is called with a finite timeout.
//  3. The answer is classified and handed to the stream renderer.
//  4. The renderer reveals it and settles the message.
//
// A failed send settles the placeholder with SendErrorText.
package conversation
