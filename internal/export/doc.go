// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders the conversation to shareable formats.
//
// Supported formats: md, json, txt, html.
//
//	t := export.NewTranscript("Elysian Circle", store.Messages())
//	exp, _ := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(t, exp, "")
package export
