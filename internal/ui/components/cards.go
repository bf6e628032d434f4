// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/navi-tui/internal/model"
	"github.com/jeranaias/navi-tui/internal/ui/styles"
	"github.com/jeranaias/navi-tui/internal/util"
)

// cardWidth is the outer width of one recommendation card.
const cardWidth = 26

// RenderCards lays out recommendation entries as cards, as many per row as
// width allows. Returns "" for no entries.
func RenderCards(theme *styles.Theme, entries []model.RecommendationEntry, width int) string {
	if len(entries) == 0 {
		return ""
	}

	perRow := width / cardWidth
	if perRow < 1 {
		perRow = 1
	}
	inner := cardWidth - 4

	var rows []string
	for start := 0; start < len(entries); start += perRow {
		end := start + perRow
		if end > len(entries) {
			end = len(entries)
		}
		cards := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			cards = append(cards, renderCard(theme, e, inner))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(theme *styles.Theme, e model.RecommendationEntry, inner int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.CardTitle.Render(util.TruncateWidth(e.CareerTitle, inner)),
		util.TruncateWidth(e.Name, inner),
		theme.CardMeta.Render(yearsLabel(e.Years)),
	)
	return theme.Card.Width(inner + 2).Render(body)
}

func yearsLabel(years int) string {
	switch years {
	case 0:
		return "new to the field"
	case 1:
		return "1 year"
	default:
		return fmt.Sprintf("%d years", years)
	}
}
