// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared startup for commands that work on the conversation.

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jeranaias/elysian-tui/internal/chatapi"
	"github.com/jeranaias/elysian-tui/internal/config"
	"github.com/jeranaias/elysian-tui/internal/conversation"
	"github.com/jeranaias/elysian-tui/internal/coordinator"
	"github.com/jeranaias/elysian-tui/internal/logging"
	"github.com/jeranaias/elysian-tui/internal/storage"
)

// =============================================================================
// CONFIG AND LOGGING
// =============================================================================

// LoadConfig loads .env, then the config file (--config or the default
// location), then applies command-line overrides. It returns the config and
// the file path it is bound to.
func LoadConfig(args Args) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", err
	}

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if args.ConfigPath != "" {
		path = args.ConfigPath
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, path, &NotFoundError{Resource: "config file", ID: path}
		}
		cfg, err = config.LoadFromPath(path)
	} else {
		if path, err = config.ActivePath(); err != nil {
			return nil, "", err
		}
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if err := ApplyFlagOverrides(cfg, args); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// ApplyFlagOverrides applies --endpoint, --storage, --ephemeral and
// --verbose to cfg and revalidates it.
func ApplyFlagOverrides(cfg *config.Config, args Args) error {
	if args.Endpoint != "" {
		cfg.Chat.Endpoint = args.Endpoint
	}
	if args.Storage != "" {
		cfg.Storage.Backend = args.Storage
	}
	if args.Ephemeral {
		cfg.Storage.Backend = storage.BackendMemory
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SetupLogging installs the global logger for cfg. With stderr set, records
// are also written to stderr; the full-screen UI must not do that.
func SetupLogging(cfg *config.Config, args Args, stderr bool) error {
	return logging.Setup(logging.Options{
		Path:   cfg.Log.Path,
		Level:  cfg.Log.Level,
		Stderr: stderr && args.Verbose,
	})
}

// =============================================================================
// APP
// =============================================================================

// App bundles everything a conversation command needs.
type App struct {
	Args       Args
	Config     *config.Config
	ConfigPath string

	Persist *storage.KeyValue
	Store   *conversation.Store
	Client  *chatapi.Client
	Coord   *coordinator.Coordinator

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Interactive is true when stdin is a terminal.
	Interactive bool
	// Pretty enables markdown rendering of replies on stdout.
	Pretty bool
}

// OpenApp opens storage, hydrates the conversation and builds the
// coordinator. A conversation that cannot be read starts empty with a
// warning on stderr.
func OpenApp(ctx context.Context, args Args, cfg *config.Config, path string) (*App, error) {
	persist, err := storage.Open(storage.Options{
		Backend:  cfg.Storage.Backend,
		DataDir:  cfg.Storage.DataDir,
		Key:      cfg.Storage.Key,
		RedisURL: cfg.Storage.RedisURL,
		Prefix:   cfg.Storage.RedisPrefix,
	})
	if err != nil {
		return nil, &CommandError{Command: "storage", Action: "open", Reason: cfg.Storage.Backend, Err: err}
	}

	app := NewApp(args, cfg, persist)
	app.ConfigPath = path
	app.In = os.Stdin
	app.Out = os.Stdout
	app.Err = os.Stderr
	app.Interactive = IsTTY()
	app.Pretty = IsStdoutTTY() && cfg.UI.Markdown

	if _, err := app.Store.Load(ctx); err != nil && !args.Quiet && !args.JSON {
		fmt.Fprintf(app.Err, "%s %v (starting with an empty conversation)\n",
			WarningStyle.Render("[WARN]"), err)
	}

	logging.Event(ctx, slog.LevelInfo, "APP_OPEN",
		"backend", persist.Backend().Name(),
		"endpoint", cfg.Chat.Endpoint,
		"messages", app.Store.Len())
	return app, nil
}

// NewApp wires a coordinator over persist without touching the terminal.
// The caller loads the store.
func NewApp(args Args, cfg *config.Config, persist *storage.KeyValue) *App {
	client := chatapi.NewClient(cfg.Chat.Endpoint).WithTimeout(cfg.Chat.Timeout())
	store := conversation.NewStore(persist)

	policy := coordinator.RestoreDraftOnError
	if !cfg.Chat.KeepDraftOnError {
		policy = coordinator.ClearDraftOnError
	}

	return &App{
		Args:    args,
		Config:  cfg,
		Persist: persist,
		Store:   store,
		Client:  client,
		Coord:   coordinator.New(store, client).WithDraftPolicy(policy),
		In:      os.Stdin,
		Out:     io.Discard,
		Err:     io.Discard,
	}
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.Persist == nil {
		return nil
	}
	return a.Persist.Close()
}
