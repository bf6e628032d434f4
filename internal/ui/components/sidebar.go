// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/session"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
	"github.com/jeranaias/navi-tui/internal/util"
)

// prefetchDistance is how close to the end of the list the cursor may get
// before the next page is requested.
const prefetchDistance = 3

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// Sidebar lists the user's sessions. It draws a snapshot of the session
// pager and tracks the cursor; it never fetches on its own.
type Sidebar struct {
	theme *styles.Theme

	snap     session.Snapshot
	cursor   int
	offset   int
	activeID string
	focused  bool

	Width  int
	Height int
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme, Width: 32, Height: 20}
}

// SetSnapshot replaces the drawn sessions, keeping the cursor on the same
// session when it is still present.
func (s *Sidebar) SetSnapshot(snap session.Snapshot) {
	var selectedID string
	if sel, ok := s.Selected(); ok {
		selectedID = sel.SessionID
	}
	s.snap = snap
	s.cursor = 0
	for i, sess := range snap.Sessions {
		if sess.SessionID == selectedID {
			s.cursor = i
			break
		}
	}
	s.clamp()
}

// SetActive marks the session shown in the conversation pane.
func (s *Sidebar) SetActive(id string) { s.activeID = id }

// Active returns the session shown in the conversation pane.
func (s *Sidebar) Active() string { return s.activeID }

// SetFocused toggles keyboard focus.
func (s *Sidebar) SetFocused(f bool) { s.focused = f }

// Focused reports keyboard focus.
func (s *Sidebar) Focused() bool { return s.focused }

// Len returns the number of listed sessions.
func (s *Sidebar) Len() int { return len(s.snap.Sessions) }

// Up moves the cursor up one row.
func (s *Sidebar) Up() {
	s.cursor--
	s.clamp()
}

// Down moves the cursor down one row.
func (s *Sidebar) Down() {
	s.cursor++
	s.clamp()
}

// Selected returns the session under the cursor.
func (s *Sidebar) Selected() (model.Session, bool) {
	if s.cursor < 0 || s.cursor >= len(s.snap.Sessions) {
		return model.Session{}, false
	}
	return s.snap.Sessions[s.cursor], true
}

// WantsMore reports whether the cursor is close enough to the end of the
// list that the next page should be fetched.
func (s *Sidebar) WantsMore() bool {
	if !s.snap.HasNext || s.snap.IsLoading {
		return false
	}
	return s.cursor >= len(s.snap.Sessions)-prefetchDistance
}

func (s *Sidebar) clamp() {
	if s.cursor >= len(s.snap.Sessions) {
		s.cursor = len(s.snap.Sessions) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	rows := s.visibleRows()
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

func (s *Sidebar) visibleRows() int {
	// title + blank + footer hint
	rows := s.Height - 3
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	if s.Width <= 0 {
		return ""
	}
	inner := s.Width - 3

	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render("Chats"))
	b.WriteString("\n")

	sessions := s.snap.Sessions
	if len(sessions) == 0 {
		switch {
		case s.snap.IsLoading || !s.snap.IsInitialized:
			b.WriteString(s.theme.SidebarHint.Render("loading..."))
		default:
			b.WriteString(s.theme.SidebarHint.Render("no chats yet"))
		}
	}

	end := s.offset + s.visibleRows()
	if end > len(sessions) {
		end = len(sessions)
	}
	for i := s.offset; i < end; i++ {
		sess := sessions[i]
		marker := "  "
		if sess.SessionID == s.activeID {
			marker = "• "
		}
		line := util.PadRight(marker+util.TruncateWidth(sess.DisplayTitle(), inner-2), inner)

		switch {
		case i == s.cursor && s.focused:
			line = s.theme.SidebarSelected.Render(line)
		case sess.SessionID == s.activeID:
			line = s.theme.SidebarActive.Render(line)
		default:
			line = s.theme.SidebarItem.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch {
	case s.snap.IsLoading && len(sessions) > 0:
		b.WriteString(s.theme.SidebarHint.Render("loading more..."))
	case s.snap.HasNext && len(sessions) > 0:
		b.WriteString(s.theme.SidebarHint.Render("↓ more"))
	}

	return s.theme.Sidebar.
		Width(s.Width - 1).
		Height(s.Height).
		MaxHeight(s.Height).
		Render(lipgloss.NewStyle().MaxWidth(inner).Render(strings.TrimRight(b.String(), "\n")))
}
