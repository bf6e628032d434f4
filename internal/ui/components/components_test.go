// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/session"
	"github.com/jeranaias/navi-tui/internal/stream"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

func sessions(n int) []model.Session {
	out := make([]model.Session, n)
	for i := range out {
		out[i] = model.Session{SessionID: fmt.Sprintf("s%d", i), SessionTitle: fmt.Sprintf("chat %d", i)}
	}
	return out
}

// =============================================================================
// MESSAGE BUBBLE TESTS
// =============================================================================

func TestMessageBubble_Awaiting(t *testing.T) {
	msg := model.NewPendingMessage(-1, "s1", "hello", time.Now())
	b := NewMessageBubble(msg, testTheme(), nil)
	b.Spinner = "..."

	out := b.View()
	if !strings.Contains(out, "hello") {
		t.Error("question missing")
	}
	if !strings.Contains(out, GeneratingText) {
		t.Error("waiting indicator missing")
	}
}

func TestMessageBubble_RevealingShowsPrefixAndCursor(t *testing.T) {
	msg := model.Message{MemberMessageID: 1, Question: "q", Answer: "hi there", IsStreaming: true}
	b := NewMessageBubble(msg, testTheme(), nil)
	b.Answer = "hi th"
	b.Phase = stream.Revealing

	out := b.View()
	if !strings.Contains(out, "hi th"+revealCursor) {
		t.Errorf("expected revealed prefix with cursor, got:\n%s", out)
	}
	if strings.Contains(out, "hi there") {
		t.Error("full answer shown during reveal")
	}
}

func TestMessageBubble_Failed(t *testing.T) {
	msg := model.Message{MemberMessageID: 1, Question: "q", Answer: "An error occurred", Failed: true}
	out := NewMessageBubble(msg, testTheme(), nil).View()
	if !strings.Contains(out, "An error occurred") {
		t.Error("failure text missing")
	}
}

func TestMessageBubble_CardsOnlyWhenAllowed(t *testing.T) {
	msg := model.Message{
		MemberMessageID: 1,
		Question:        "q",
		Answer:          "recommendations are ready",
		RoleModels:      []model.RecommendationEntry{{Years: 3, CareerTitle: "Engineer", Name: "Alice"}},
	}
	b := NewMessageBubble(msg, testTheme(), nil)
	b.Width = 100

	if strings.Contains(b.View(), "Alice") {
		t.Error("cards shown before allowed")
	}
	b.ShowCards = true
	out := b.View()
	for _, want := range []string{"Engineer", "Alice", "3 years"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q", want)
		}
	}
}

func TestMessageBubble_MarkdownSettled(t *testing.T) {
	md := NewMarkdown("notty", true)
	msg := model.Message{MemberMessageID: 1, Question: "q", Answer: "settled answer text"}
	out := NewMessageBubble(msg, testTheme(), md).View()
	if !strings.Contains(out, "settled answer text") {
		t.Errorf("rendered answer lost its text:\n%s", out)
	}
	if len(md.cache) != 1 {
		t.Errorf("settled answer should go through the markdown renderer, cache=%d", len(md.cache))
	}
}

func TestMessageBubble_RevealSkipsMarkdown(t *testing.T) {
	md := NewMarkdown("notty", true)
	msg := model.Message{MemberMessageID: 1, Question: "q", Answer: "partial", IsStreaming: true}
	b := NewMessageBubble(msg, testTheme(), md)
	b.Phase = stream.Revealing
	b.View()
	if len(md.cache) != 0 {
		t.Error("revealing text must not be markdown rendered")
	}
}

// =============================================================================
// MARKDOWN / CARDS
// =============================================================================

func TestMarkdown_DisabledOnlyWraps(t *testing.T) {
	md := NewMarkdown("notty", false)
	if got := md.Render("# title", 40); !strings.Contains(got, "# title") {
		t.Errorf("disabled markdown altered text: %q", got)
	}
	var nilMD *Markdown
	if nilMD.Enabled() {
		t.Error("nil markdown should be disabled")
	}
}

func TestMarkdown_CacheHit(t *testing.T) {
	md := NewMarkdown("notty", true)
	a := md.Render("some *text*", 30)
	b := md.Render("some *text*", 30)
	if a != b {
		t.Error("cached render differs")
	}
	if len(md.cache) != 1 {
		t.Errorf("cache size = %d, want 1", len(md.cache))
	}
}

func TestRenderCards_Layout(t *testing.T) {
	entries := []model.RecommendationEntry{
		{Years: 0, CareerTitle: "A", Name: "n1"},
		{Years: 1, CareerTitle: "B", Name: "n2"},
		{Years: 7, CareerTitle: "C", Name: "n3"},
	}
	if RenderCards(testTheme(), nil, 80) != "" {
		t.Error("no entries should render nothing")
	}

	wide := RenderCards(testTheme(), entries, cardWidth*3)
	narrow := RenderCards(testTheme(), entries, cardWidth)
	if lipgloss.Height(narrow) <= lipgloss.Height(wide) {
		t.Errorf("narrow layout should stack cards: narrow=%d wide=%d",
			lipgloss.Height(narrow), lipgloss.Height(wide))
	}
	for _, want := range []string{"new to the field", "1 year", "7 years"} {
		if !strings.Contains(wide, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestNeedsSeparator(t *testing.T) {
	day1 := model.NewTimestamp(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	day1b := model.NewTimestamp(time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC))
	day2 := model.NewTimestamp(time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC))

	first := model.Message{CreatedAt: day1}
	if !NeedsSeparator(nil, first, time.UTC) {
		t.Error("first message needs a separator")
	}
	if NeedsSeparator(&first, model.Message{CreatedAt: day1b}, time.UTC) {
		t.Error("same day should not get a separator")
	}
	if !NeedsSeparator(&first, model.Message{CreatedAt: day2}, time.UTC) {
		t.Error("new day needs a separator")
	}
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func TestSidebar_NavigationAndPrefetch(t *testing.T) {
	sb := NewSidebar(testTheme())
	sb.Height = 10
	sb.SetSnapshot(session.Snapshot{Sessions: sessions(6), HasNext: true, IsInitialized: true})

	sel, ok := sb.Selected()
	if !ok || sel.SessionID != "s0" {
		t.Fatalf("initial selection = %+v", sel)
	}
	if sb.WantsMore() {
		t.Error("should not prefetch at the top")
	}

	for i := 0; i < 10; i++ {
		sb.Down()
	}
	sel, _ = sb.Selected()
	if sel.SessionID != "s5" {
		t.Errorf("cursor should stop at the last row, got %s", sel.SessionID)
	}
	if !sb.WantsMore() {
		t.Error("should prefetch near the end")
	}

	sb.SetSnapshot(session.Snapshot{Sessions: sessions(6), HasNext: false, IsInitialized: true})
	if sb.WantsMore() {
		t.Error("no prefetch once the list is exhausted")
	}
}

func TestSidebar_SnapshotKeepsSelection(t *testing.T) {
	sb := NewSidebar(testTheme())
	sb.SetSnapshot(session.Snapshot{Sessions: sessions(3), IsInitialized: true})
	sb.Down()
	sb.Down()

	// A new chat is prepended; the cursor follows s2.
	list := append([]model.Session{{SessionID: "new"}}, sessions(3)...)
	sb.SetSnapshot(session.Snapshot{Sessions: list, IsInitialized: true})

	sel, _ := sb.Selected()
	if sel.SessionID != "s2" {
		t.Errorf("selection = %s, want s2", sel.SessionID)
	}
}

func TestSidebar_View(t *testing.T) {
	sb := NewSidebar(testTheme())
	sb.Width = 24
	if !strings.Contains(sb.View(), "loading") {
		t.Error("uninitialized sidebar should say loading")
	}

	sb.SetSnapshot(session.Snapshot{Sessions: nil, IsInitialized: true})
	if !strings.Contains(sb.View(), "no chats yet") {
		t.Error("empty sidebar hint missing")
	}

	sb.SetSnapshot(session.Snapshot{
		Sessions:      []model.Session{{SessionID: "a", SessionTitle: strings.Repeat("very long title ", 5)}},
		IsInitialized: true,
	})
	for _, line := range strings.Split(sb.View(), "\n") {
		if w := lipgloss.Width(line); w > sb.Width {
			t.Errorf("line wider than sidebar (%d > %d): %q", w, sb.Width, line)
		}
	}
}

// =============================================================================
// INSPECTOR TESTS
// =============================================================================

func TestInspector(t *testing.T) {
	in := NewInspector(testTheme())
	if in.View() != "" {
		t.Error("hidden inspector should render nothing")
	}

	in.Height = 6
	in.Open(model.Message{
		MemberMessageID: 5,
		SessionID:       "s1",
		Question:        "who?",
		RoleModels:      []model.RecommendationEntry{{Name: "Alice"}, {Name: "Bob"}},
	})
	if !in.Visible() {
		t.Fatal("Open should show the inspector")
	}
	if !strings.Contains(in.View(), "memberMessageId") {
		t.Error("JSON body missing")
	}

	in.ScrollDown(1000)
	if in.offset != len(in.lines)-in.bodyHeight() {
		t.Errorf("offset = %d, want clamped to %d", in.offset, len(in.lines)-in.bodyHeight())
	}
	in.ScrollUp(1000)
	if in.offset != 0 {
		t.Errorf("offset = %d after scrolling up", in.offset)
	}

	in.Close()
	if in.Visible() {
		t.Error("Close should hide the inspector")
	}
}

func TestHighlight_FallbackOnUnknownStyle(t *testing.T) {
	out := Highlight(`{"a": 1}`, "json", "no-such-style")
	if !strings.Contains(out, "a") {
		t.Errorf("highlight lost content: %q", out)
	}
}
