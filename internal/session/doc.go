// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the paginated list of chat sessions.
//
// A Pager is constructed once at startup and shared by every consumer (the
// sidebar, the sessions subcommand). It owns the session list and advances a
// (createdAt, sessionId) cursor one page at a time.
//
// # Usage
//
//	pager := session.NewPager(client, session.Options{PageSize: 15})
//	if err := pager.FetchNextPage(ctx); err != nil {
//	    // state is unchanged, the same trigger can retry
//	}
//	for _, s := range pager.Sessions() {
//	    fmt.Println(s.DisplayTitle())
//	}
//
// # Concurrency
//
// All methods are safe for concurrent use. A FetchNextPage call made while
// another is in flight returns immediately without touching the network.
package session
