// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the elysian TUI.

All colors use Lip Gloss AdaptiveColor so one palette serves light and dark
terminals. The Theme picks between them either from the configured mode or,
in auto mode, by asking the terminal through termenv.

# Color System (colors.go)

  - Purple - Title and AI label
  - Cyan - User label and focused input
  - Rose - Error banner
  - Amber - Loading indicator

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	label := theme.LabelStyle(msg.IsUser()).Render(msg.Role.Label() + ":")
*/
package styles
