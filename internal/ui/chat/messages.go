// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/navi-tui/internal/config"
)

// ConfigReloadedMsg carries a config that changed on disk. Send it with
// tea.Program.Send from the config watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// sessionsLoadedMsg reports a finished session page fetch.
type sessionsLoadedMsg struct {
	err error
}

// sessionDeletedMsg reports a finished delete.
type sessionDeletedMsg struct {
	sessionID string
	err       error
}
