// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the conversation under a single key.
//
// The conversation is one JSON array stored as one value. A Blob is the raw
// key/value backend; KeyValue adapts a Blob to the Persistence interface the
// conversation store depends on.
//
// # Backends
//
//   - file: <data_dir>/<key>.json, written atomically (default)
//   - sqlite: <data_dir>/elysian.db, table kv
//   - redis: plain string at <prefix><key>
//   - memory: process-local, lost on exit
//
// # Usage
//
//	p, err := storage.Open(storage.Options{
//	    Backend: "file",
//	    DataDir: "~/.elysian/data",
//	    Key:     storage.DefaultKey,
//	})
//	msgs, err := p.Load(ctx)
package storage
