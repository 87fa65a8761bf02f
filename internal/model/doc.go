// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversation messages.
//
// A conversation is an ordered slice of Message values. Messages are never
// edited once created; the sequence only grows by appending, or is reset.
//
// # Stored Form
//
// Sequences are stored as a JSON array:
//
//	[{"role":"user","text":"hello"},{"role":"ai","text":"world"}]
//
// The assistant role is written as "ai" and read as either "ai" or
// "assistant".
//
// # Usage
//
//	msgs := []model.Message{
//	    model.NewUserMessage("hello"),
//	    model.NewAssistantMessage("world"),
//	}
//	blob, err := model.Encode(msgs)
package model
