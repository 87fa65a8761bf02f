// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/elysian-tui/internal/model"
	"github.com/jeranaias/elysian-tui/internal/util"
)

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport and input to the space left by the fixed parts.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	m.input.SetWidth(max(m.width-2, 10))

	reserved := lipgloss.Height(m.renderHeader())
	reserved += inputHeight + 2 // textarea plus its border
	if m.failed {
		reserved += lipgloss.Height(m.renderBanner())
	}
	if m.notice != "" {
		reserved++
	}
	if m.showHelp {
		reserved += lipgloss.Height(m.renderHelp())
	}

	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-reserved, 1)
}

// =============================================================================
// RENDERING
// =============================================================================

func (m Model) renderChat() string {
	if !m.ready {
		return "Initializing..."
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if m.failed {
		parts = append(parts, m.renderBanner())
	}
	if m.notice != "" {
		parts = append(parts, m.theme.Notice.Render(util.TruncateWidth(m.notice, m.width)))
	}
	parts = append(parts, m.renderInput())
	if m.showHelp {
		parts = append(parts, m.renderHelp())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := util.TruncateWidth(m.title, max(m.width-2, 1))
	return m.theme.Header.Width(max(m.width, 1)).Render(m.theme.HeaderTitle.Render(title))
}

func (m Model) renderBanner() string {
	return m.theme.Banner.Width(max(m.width-2, 1)).Render(m.bannerText)
}

func (m Model) renderInput() string {
	style := m.theme.InputBlurred
	if m.input.Focused() {
		style = m.theme.InputFocused
	}
	return style.Render(m.input.View())
}

func (m Model) renderHelp() string {
	return m.help.View(m.keys)
}

// renderMessages renders the conversation followed by the loading indicator.
func (m *Model) renderMessages() string {
	msgs := m.coord.Store().Messages()
	pending := m.coord.Pending() || m.awaiting

	if len(msgs) == 0 && !pending {
		return m.theme.Empty.Render(emptyText)
	}

	blocks := make([]string, 0, len(msgs)+1)
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg))
	}
	if pending {
		blocks = append(blocks, m.spinner.View()+" "+m.theme.Loader.Render(loadingText))
	}
	return strings.Join(blocks, "\n")
}

// renderMessage renders one "Label: text" entry, wrapping the text beside the
// label. Assistant text goes through the markdown renderer when enabled.
func (m *Model) renderMessage(msg model.Message) string {
	label := m.theme.LabelStyle(msg.IsUser()).Render(msg.Role.Label() + ":")

	if msg.IsAssistant() && m.markdown {
		if out, ok := m.renderMarkdown(msg.Text); ok {
			return label + "\n" + out
		}
	}

	width := m.width - lipgloss.Width(label) - 1
	if width < 10 {
		return label + " " + m.theme.MessageText.Render(msg.Text)
	}
	body := m.theme.MessageText.Width(width).Render(msg.Text)
	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", body)
}

// renderMarkdown renders text with glamour, rebuilding the renderer when the
// width or background changes.
func (m *Model) renderMarkdown(text string) (string, bool) {
	width := max(m.width-4, 20)
	if m.md == nil || m.mdWidth != width || m.mdDark != m.theme.IsDark {
		style := "light"
		if m.theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", false
		}
		m.md, m.mdWidth, m.mdDark = r, width, m.theme.IsDark
	}

	out, err := m.md.Render(text)
	if err != nil {
		return "", false
	}
	return strings.Trim(out, "\n"), true
}
