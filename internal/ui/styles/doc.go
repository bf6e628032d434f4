// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the navi TUI.
//
// Colors are lipgloss.AdaptiveColor values, so one palette serves both light
// and dark terminals. The Theme bundles every lipgloss.Style the UI draws
// with; components receive a *Theme rather than building their own styles.
//
// # Background Detection
//
// NewTheme consults termenv for the color profile and background. The "dark"
// and "light" modes override detection for terminals that report wrongly.
//
// # Usage
//
//	theme := styles.NewTheme("auto")
//	bubble := theme.AnswerBubble.Width(60).Render(text)
package styles
