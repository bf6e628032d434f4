// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockserver implements the NAVI conversation service in memory.
//
// It serves the same envelope and routes as the real service, so the TUI and
// the one-shot commands can be exercised without an account:
//
//	navi mock-server --addr 127.0.0.1:8089 --seed
//	navi --server http://127.0.0.1:8089 chat
//
// Questions asking for role models or recommendations are answered with an
// embedded recommendation document; everything else gets a markdown answer.
package mockserver
