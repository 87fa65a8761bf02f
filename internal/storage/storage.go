// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the conversation under a single key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/elysian-tui/internal/model"
)

// DefaultKey is the key the conversation is stored under.
const DefaultKey = "chatMessages"

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a key has no stored value.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StorageError{Message: "key not found"}

// ErrClosed is returned by backends used after Close.
var ErrClosed = &StorageError{Message: "storage closed"}

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// MalformedError reports a stored value that could not be decoded.
type MalformedError struct {
	Key string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("stored value for %q is malformed: %v", e.Key, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// IsMalformed reports whether err (or anything it wraps) is a MalformedError.
func IsMalformed(err error) bool {
	var m *MalformedError
	return errors.As(err, &m)
}

// =============================================================================
// INTERFACES
// =============================================================================

// Blob is a raw key/value backend.
type Blob interface {
	// Get returns the stored bytes, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
	// Name identifies the backend in logs.
	Name() string
}

// Persistence loads and saves a whole conversation.
type Persistence interface {
	// Load returns the stored sequence. A missing key yields an empty
	// sequence and nil error; an undecodable value yields a *MalformedError.
	Load(ctx context.Context) ([]model.Message, error)
	Save(ctx context.Context, msgs []model.Message) error
	// Clear removes the stored entry entirely.
	Clear(ctx context.Context) error
}

// =============================================================================
// KEY/VALUE PERSISTENCE
// =============================================================================

// KeyValue stores the conversation as a JSON array in one Blob key.
type KeyValue struct {
	blob Blob
	key  string
}

// NewKeyValue binds a Blob and key. An empty key uses DefaultKey.
func NewKeyValue(blob Blob, key string) *KeyValue {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	return &KeyValue{blob: blob, key: key}
}

// Key returns the storage key.
func (kv *KeyValue) Key() string { return kv.key }

// Backend returns the underlying Blob.
func (kv *KeyValue) Backend() Blob { return kv.blob }

// Load implements Persistence.
func (kv *KeyValue) Load(ctx context.Context) ([]model.Message, error) {
	data, err := kv.blob.Get(ctx, kv.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.Message{}, nil
		}
		return nil, fmt.Errorf("%s: load %q: %w", kv.blob.Name(), kv.key, err)
	}

	msgs, err := model.Decode(data)
	if err != nil {
		return nil, &MalformedError{Key: kv.key, Err: err}
	}
	return msgs, nil
}

// Save implements Persistence.
func (kv *KeyValue) Save(ctx context.Context, msgs []model.Message) error {
	data, err := model.Encode(msgs)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := kv.blob.Set(ctx, kv.key, data); err != nil {
		return fmt.Errorf("%s: save %q: %w", kv.blob.Name(), kv.key, err)
	}
	return nil
}

// Clear implements Persistence.
func (kv *KeyValue) Clear(ctx context.Context) error {
	if err := kv.blob.Delete(ctx, kv.key); err != nil {
		return fmt.Errorf("%s: clear %q: %w", kv.blob.Name(), kv.key, err)
	}
	return nil
}

// Close releases the backend.
func (kv *KeyValue) Close() error {
	return kv.blob.Close()
}
