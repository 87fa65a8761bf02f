// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the process-wide structured logger.
//
// The TUI owns the terminal, so logs go to a file by default. Messages follow
// the EVENT | key=value convention and carry the same fields as attributes.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.NewJSONHandler(io.Discard, nil))
	closers []io.Closer
)

// Options configures Setup.
type Options struct {
	// Path is the log file. Empty disables file logging.
	Path string
	// Level is one of debug, info, warn, error.
	Level string
	// Stderr also writes text-formatted records to stderr.
	Stderr bool
}

// ParseLevel maps a level name to a slog.Level. Unknown names yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the global logger. Calling it again replaces the previous
// logger and closes its file.
func Setup(opts Options) error {
	level := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	var newClosers []io.Closer

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, hopts))
		newClosers = append(newClosers, f)
	}
	if opts.Stderr {
		handlers = append(handlers, slog.NewTextHandler(os.Stderr, hopts))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.NewJSONHandler(io.Discard, nil)
	case 1:
		h = handlers[0]
	default:
		h = fanout(handlers)
	}

	mu.Lock()
	old := closers
	logger = slog.New(h)
	closers = newClosers
	mu.Unlock()

	for _, c := range old {
		c.Close()
	}
	return nil
}

// SetLogger replaces the global logger. Used by tests to capture output.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Close flushes and closes any log file opened by Setup.
func Close() {
	mu.Lock()
	old := closers
	closers = nil
	logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	mu.Unlock()
	for _, c := range old {
		c.Close()
	}
}

// Logger returns the global logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithRequestID stores a request id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// FromContext returns the global logger with request_id attached if present.
func FromContext(ctx context.Context) *slog.Logger {
	l := Logger()
	if id := RequestID(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}

// Event logs "NAME | k=v k2=v2" at the given level with the same pairs as
// structured attributes.
func Event(ctx context.Context, level slog.Level, name string, kv ...any) {
	l := FromContext(ctx)
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, formatEvent(name, kv...), kv...)
}

func formatEvent(name string, kv ...any) string {
	if len(kv) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" |")
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}

// fanout duplicates records to several handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
