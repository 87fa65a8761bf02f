// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestEvent_FormatsMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer Close()

	ctx := WithRequestID(context.Background(), "req-1")
	Event(ctx, slog.LevelInfo, "CHAT_REQUEST", "chars", 5)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "CHAT_REQUEST | chars=5", rec["msg"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.EqualValues(t, 5, rec["chars"])
}

func TestEvent_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	defer Close()

	Event(context.Background(), slog.LevelInfo, "QUIET")
	assert.Zero(t, buf.Len())
}

func TestSetup_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "elysian.log")
	require.NoError(t, Setup(Options{Path: path, Level: "debug"}))

	Logger().Debug("hello")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"hello"`))
}

func TestFromContext_NoRequestID(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.NotNil(t, FromContext(context.Background()))
}
