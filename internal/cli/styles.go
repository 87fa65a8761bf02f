// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for CLI output.
//
// The palette is the TUI palette so `elysian chat` and the full-screen UI
// look alike.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/elysian-tui/internal/model"
	"github.com/jeranaias/elysian-tui/internal/ui/styles"
)

// init configures lipgloss color profile based on terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// UserLabelStyle labels the user's messages
	UserLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// AILabelStyle labels the assistant's messages
	AILabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator renders a horizontal separator line of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 70
	}
	return SeparatorStyle.Render(strings.Repeat("─", width))
}

// RenderLabel renders the "You:" or "AI:" prefix for a message.
func RenderLabel(msg model.Message) string {
	style := AILabelStyle
	if msg.IsUser() {
		style = UserLabelStyle
	}
	return style.Render(msg.Role.Label() + ":")
}
