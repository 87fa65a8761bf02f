// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/elysian-tui/internal/model"
)

// =============================================================================
// BLOB CONFORMANCE
// =============================================================================

// testBlob runs the behaviors every backend must share.
func testBlob(t *testing.T, blob Blob) {
	t.Helper()
	ctx := context.Background()

	if _, err := blob.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := blob.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := blob.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	got, err := blob.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("Get = %q, want %q", got, "two")
	}

	if err := blob.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := blob.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
	if err := blob.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key should succeed, got %v", err)
	}
}

func TestMemoryBlob(t *testing.T) {
	testBlob(t, NewMemoryBlob())
}

func TestFileBlob(t *testing.T) {
	blob, err := NewFileBlob(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	testBlob(t, blob)
}

func TestSQLiteBlob(t *testing.T) {
	blob, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer blob.Close()
	testBlob(t, blob)
}

func TestRedisBlob(t *testing.T) {
	url := os.Getenv("ELYSIAN_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ELYSIAN_TEST_REDIS_URL not set")
	}
	blob, err := OpenRedis(url, "elysian-test:")
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	defer blob.Close()
	testBlob(t, blob)
}

func TestFileBlob_RejectsPathKeys(t *testing.T) {
	blob, err := NewFileBlob(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	for _, key := range []string{"../escape", "a/b", "", ".."} {
		if err := blob.Set(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("Set(%q) should fail", key)
		}
	}
}

func TestMemoryBlob_Closed(t *testing.T) {
	blob := NewMemoryBlob()
	blob.Close()
	if err := blob.Set(context.Background(), "k", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close error = %v, want ErrClosed", err)
	}
}

// =============================================================================
// KEY/VALUE PERSISTENCE TESTS
// =============================================================================

func TestKeyValue_LoadMissingIsEmpty(t *testing.T) {
	kv := NewKeyValue(NewMemoryBlob(), "")

	msgs, err := kv.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("Load = %#v, want empty non-nil slice", msgs)
	}
	if kv.Key() != DefaultKey {
		t.Errorf("Key = %q, want %q", kv.Key(), DefaultKey)
	}
}

func TestKeyValue_SaveThenLoad(t *testing.T) {
	blob, err := NewFileBlob(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	kv := NewKeyValue(blob, DefaultKey)
	ctx := context.Background()

	want := []model.Message{
		model.NewUserMessage("hello"),
		model.NewAssistantMessage("world"),
	}
	if err := kv.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A fresh adapter over the same directory sees the same sequence
	kv2 := NewKeyValue(blob, DefaultKey)
	got, err := kv2.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !model.Equal(got, want) {
		t.Errorf("Load = %#v, want %#v", got, want)
	}

	raw, err := os.ReadFile(filepath.Join(blob.BaseDir, "chatMessages.json"))
	if err != nil {
		t.Fatalf("Stored file missing: %v", err)
	}
	if string(raw) != `[{"role":"user","text":"hello"},{"role":"ai","text":"world"}]` {
		t.Errorf("Stored blob = %s", raw)
	}
}

func TestKeyValue_LoadMalformed(t *testing.T) {
	blob := NewMemoryBlob()
	blob.Set(context.Background(), DefaultKey, []byte("{not json"))
	kv := NewKeyValue(blob, DefaultKey)

	_, err := kv.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed value")
	}
	if !IsMalformed(err) {
		t.Errorf("error %v should be a MalformedError", err)
	}
}

func TestKeyValue_ClearRemovesKey(t *testing.T) {
	blob := NewMemoryBlob()
	kv := NewKeyValue(blob, DefaultKey)
	ctx := context.Background()

	if err := kv.Save(ctx, []model.Message{model.NewUserMessage("x")}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !blob.Has(DefaultKey) {
		t.Fatal("key not written")
	}

	if err := kv.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if blob.Has(DefaultKey) {
		t.Error("Clear should delete the key, not write an empty value")
	}
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{"default is file", Options{DataDir: dir}, BackendFile, false},
		{"file", Options{Backend: "file", DataDir: dir}, BackendFile, false},
		{"sqlite", Options{Backend: "SQLite", DataDir: dir}, BackendSQLite, false},
		{"memory", Options{Backend: "memory"}, BackendMemory, false},
		{"redis without url", Options{Backend: "redis"}, "", true},
		{"unknown", Options{Backend: "floppy"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := Open(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer kv.Close()
			if kv.Backend().Name() != tt.want {
				t.Errorf("backend = %q, want %q", kv.Backend().Name(), tt.want)
			}
		})
	}
}
