// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Backends lists the valid backend names.
var Backends = []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}

// Options selects and configures a backend.
type Options struct {
	Backend  string
	DataDir  string // file backend directory; sqlite database lives here too
	Key      string
	RedisURL string
	Prefix   string // redis key prefix
}

// Open builds the Persistence described by opts.
func Open(opts Options) (*KeyValue, error) {
	var (
		blob Blob
		err  error
	)

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		blob, err = NewFileBlob(opts.DataDir)
	case BackendSQLite:
		blob, err = OpenSQLite(filepath.Join(opts.DataDir, "elysian.db"))
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis storage requires a redis URL")
		}
		blob, err = OpenRedis(opts.RedisURL, opts.Prefix)
	case BackendMemory:
		blob = NewMemoryBlob()
	default:
		return nil, fmt.Errorf("unknown storage backend %q (valid: %s)",
			opts.Backend, strings.Join(Backends, ", "))
	}
	if err != nil {
		return nil, err
	}

	return NewKeyValue(blob, opts.Key), nil
}
