// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jeranaias/elysian-tui/internal/util"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileBlob stores each key as <BaseDir>/<key>.json.
type FileBlob struct {
	// BaseDir is the directory holding stored values.
	// Default: ~/.elysian/data/
	BaseDir string
}

// NewFileBlob creates a file backend rooted at baseDir.
func NewFileBlob(baseDir string) (*FileBlob, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("file storage: empty base directory")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("file storage: %w", err)
	}
	return &FileBlob{BaseDir: baseDir}, nil
}

func (f *FileBlob) Name() string { return "file" }

// Path returns the file a key is stored in.
func (f *FileBlob) Path(key string) (string, error) {
	// SECURITY: Keys become file names, reject anything that could escape BaseDir
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.BaseDir, key+".json"), nil
}

func (f *FileBlob) Get(_ context.Context, key string) ([]byte, error) {
	path, err := f.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (f *FileBlob) Set(_ context.Context, key string, value []byte) error {
	path, err := f.Path(key)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, value, 0600)
}

func (f *FileBlob) Delete(_ context.Context, key string) error {
	path, err := f.Path(key)
	if err != nil {
		return err
	}
	return util.RemoveIfExists(path)
}

func (f *FileBlob) Close() error { return nil }
