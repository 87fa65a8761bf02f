// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
)

// TextExporter writes one "You: ..." / "AI: ..." block per message.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new plain text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export converts a transcript to plain text.
func (e *TextExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	if e.options.IncludeMetadata && t.Title != "" {
		sb.WriteString(t.Title)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("=", len([]rune(t.Title))))
		sb.WriteString("\n\n")
	}
	for _, msg := range t.Messages {
		sb.WriteString(msg.Line())
		sb.WriteString("\n\n")
	}
	return []byte(strings.TrimRight(sb.String(), "\n") + "\n"), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string { return ".txt" }

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string { return "text/plain" }
