// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversation messages.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// wireAssistant is the role string written to storage for assistant turns.
// Stored histories from the browser widget use "ai", so both are read and
// "ai" is written to keep the two interchangeable.
const wireAssistant = "ai"

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Label returns the speaker label shown before a message.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "AI"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ParseRole maps a stored role string to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "assistant", wireAssistant:
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// MarshalJSON writes the stored form of the role.
func (r Role) MarshalJSON() ([]byte, error) {
	switch r {
	case RoleUser:
		return json.Marshal("user")
	case RoleAssistant:
		return json.Marshal(wireAssistant)
	default:
		return nil, fmt.Errorf("unknown role %q", string(r))
	}
}

// UnmarshalJSON accepts "user", "assistant" and "ai".
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one immutable entry in the conversation.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// IsUser returns true if this is a user message.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true if this is an assistant message.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// Line renders the message as "Label: text".
func (m Message) Line() string {
	return m.Role.Label() + ": " + m.Text
}

// =============================================================================
// SEQUENCE HELPERS
// =============================================================================

// Clone returns a copy of msgs that shares no backing array with it.
// A nil or empty input yields a non-nil empty slice.
func Clone(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Equal reports whether two sequences hold the same messages in the same order.
func Equal(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Encode serializes a sequence into the stored blob format.
func Encode(msgs []Message) ([]byte, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(msgs)
}

// Decode parses a stored blob. Entries with unknown or missing roles make the
// whole blob invalid, including null entries.
func Decode(data []byte) ([]Message, error) {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		// "null" decodes to a nil slice
		return nil, fmt.Errorf("stored conversation is not an array")
	}
	for i, m := range msgs {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("entry %d: missing or unknown role", i)
		}
	}
	return msgs, nil
}
