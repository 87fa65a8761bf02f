// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the elysian TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile
	Mode         string

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel   lipgloss.Style
	AILabel     lipgloss.Style
	MessageText lipgloss.Style
	Empty       lipgloss.Style

	// ==========================================================================
	// STATUS STYLES
	// ==========================================================================

	Loader lipgloss.Style
	Banner lipgloss.Style
	Notice lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputFocused lipgloss.Style
	InputBlurred lipgloss.Style
	Placeholder  lipgloss.Style

	Help lipgloss.Style
}

// NewTheme creates a theme for the given mode ("auto", "dark" or "light").
// Auto asks the terminal for its background color.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		mode = ModeAuto
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
		Mode:         mode,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AILabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.MessageText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Empty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Loader = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	// Banner carries a border so it reads as an error without color.
	t.Banner = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)

	t.Notice = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.InputFocused = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(FocusRing)

	t.InputBlurred = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// LabelStyle returns the label style for a speaker label.
func (t *Theme) LabelStyle(user bool) lipgloss.Style {
	if user {
		return t.UserLabel
	}
	return t.AILabel
}
