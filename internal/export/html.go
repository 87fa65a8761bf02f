// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
)

// HTMLExporter exports a standalone page styled like the chat window.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
// SECURITY: All message text is HTML-escaped.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := "dark"
	if e.options.Theme == "light" {
		theme = "light"
	}
	title := html.EscapeString(t.Title)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(fmt.Sprintf("<html lang=\"en\" data-theme=\"%s\">\n<head>\n", theme))
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", title))
	sb.WriteString("    <style>\n" + htmlCSS + "    </style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString("    <div class=\"query-container\">\n")
	sb.WriteString(fmt.Sprintf("        <h2>%s</h2>\n", title))
	sb.WriteString("        <div class=\"response-box\">\n")

	for _, msg := range t.Messages {
		class := "ai-msg"
		if msg.IsUser() {
			class = "user-msg"
		}
		text := strings.ReplaceAll(html.EscapeString(msg.Text), "\n", "<br>")
		sb.WriteString(fmt.Sprintf("            <p class=\"%s\"><strong>%s:</strong> %s</p>\n",
			class, msg.Role.Label(), text))
	}

	sb.WriteString("        </div>\n")
	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("        <footer>%d messages, exported %s</footer>\n",
			len(t.Messages), html.EscapeString(formatTimestamp(t.ExportedAt))))
	}
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string { return "text/html" }

const htmlCSS = `        :root { --bg: #0f0f14; --fg: #e4e4e7; --user: #a78bfa; --ai: #22d3ee; --muted: #71717a; }
        [data-theme="light"] { --bg: #fafafa; --fg: #18181b; --user: #7c3aed; --ai: #0891b2; --muted: #a1a1aa; }
        body { background: var(--bg); color: var(--fg); font-family: system-ui, sans-serif; margin: 0; }
        .query-container { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
        .response-box p { line-height: 1.5; white-space: normal; }
        .user-msg strong { color: var(--user); }
        .ai-msg strong { color: var(--ai); }
        footer { color: var(--muted); font-size: 0.85rem; margin-top: 2rem; }
`
