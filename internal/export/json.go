// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/elysian-tui/internal/model"
)

// JSONExporter writes the transcript as JSON. The messages array uses the
// stored form, so it can be copied back into storage as-is.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonTranscript struct {
	Title      string          `json:"title,omitempty"`
	ExportedAt *time.Time      `json:"exported_at,omitempty"`
	Messages   []model.Message `json:"messages"`
}

// Export converts a transcript to JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	out := jsonTranscript{Messages: t.Messages}
	if e.options.IncludeMetadata {
		out.Title = t.Title
		ts := t.ExportedAt
		out.ExportedAt = &ts
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string { return "application/json" }
