// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// DotsSpinner - Classic three-dot animation, used beside the loading text
var DotsSpinner = spinner.Spinner{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    time.Second / 6,
}

// LineSpinner - Simple line rotation for terminals that redraw slowly
var LineSpinner = spinner.Spinner{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    time.Second / 10,
}

// LoaderSpinner returns the spinner used for the loading indicator.
// Narrow layouts get the single-cell line spinner.
func (t *Theme) LoaderSpinner() spinner.Spinner {
	if t.GetLayoutMode() == LayoutNarrow {
		return LineSpinner
	}
	return DotsSpinner
}
