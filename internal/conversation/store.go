// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the ordered message history and keeps it in
// sync with persistent storage.
package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jeranaias/elysian-tui/internal/logging"
	"github.com/jeranaias/elysian-tui/internal/model"
	"github.com/jeranaias/elysian-tui/internal/storage"
)

// Store is the in-memory conversation backed by a storage.Persistence.
// Every mutation writes the full sequence through to persistence.
type Store struct {
	// writeMu orders mutations end to end: the in-memory change and its
	// persistence write happen as one step, so storage always ends up
	// matching memory.
	writeMu sync.Mutex

	mu       sync.RWMutex
	messages []model.Message
	persist  storage.Persistence
}

// NewStore creates an empty store. Call Load to hydrate it.
func NewStore(p storage.Persistence) *Store {
	return &Store{
		messages: []model.Message{},
		persist:  p,
	}
}

// Load replaces the in-memory sequence with the persisted one. A missing or
// undecodable entry yields an empty conversation; the error is logged and
// returned so callers can surface it, but the store is usable either way.
func (s *Store) Load(ctx context.Context) ([]model.Message, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	msgs, err := s.persist.Load(ctx)
	if err != nil {
		if storage.IsMalformed(err) {
			logging.Event(ctx, slog.LevelWarn, "STORE_LOAD_MALFORMED", "error", err.Error())
		} else {
			logging.Event(ctx, slog.LevelError, "STORE_LOAD_FAILED", "error", err.Error())
		}
		msgs = []model.Message{}
	} else {
		logging.Event(ctx, slog.LevelDebug, "STORE_LOAD", "messages", len(msgs))
	}

	s.mu.Lock()
	s.messages = model.Clone(msgs)
	out := model.Clone(s.messages)
	s.mu.Unlock()
	return out, err
}

// Save writes the given sequence to persistence and adopts it in memory.
func (s *Store) Save(ctx context.Context, msgs []model.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.messages = model.Clone(msgs)
	snapshot := model.Clone(s.messages)
	s.mu.Unlock()
	return s.write(ctx, snapshot)
}

// Append adds entries in order as a single mutation, then saves. The
// in-memory append stands even if the save fails.
func (s *Store) Append(ctx context.Context, entries ...model.Message) error {
	if len(entries) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.messages = append(s.messages, entries...)
	snapshot := model.Clone(s.messages)
	s.mu.Unlock()
	return s.write(ctx, snapshot)
}

// Clear empties the conversation and removes the persisted entry.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.messages = []model.Message{}
	s.mu.Unlock()

	if err := s.persist.Clear(ctx); err != nil {
		logging.Event(ctx, slog.LevelError, "STORE_CLEAR_FAILED", "error", err.Error())
		return err
	}
	logging.Event(ctx, slog.LevelInfo, "STORE_CLEAR")
	return nil
}

// Messages returns a copy of the current sequence.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Clone(s.messages)
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the most recent message, if any.
func (s *Store) Last() (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return model.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

func (s *Store) write(ctx context.Context, msgs []model.Message) error {
	if err := s.persist.Save(ctx, msgs); err != nil {
		logging.Event(ctx, slog.LevelError, "STORE_SAVE_FAILED", "messages", len(msgs), "error", err.Error())
		return err
	}
	return nil
}
