// elysian - a terminal chat client for the Elysian Circle.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/elysian-tui/internal/chatapi"
	"github.com/jeranaias/elysian-tui/internal/cli"
	"github.com/jeranaias/elysian-tui/internal/config"
	"github.com/jeranaias/elysian-tui/internal/logging"
	"github.com/jeranaias/elysian-tui/internal/server"
	"github.com/jeranaias/elysian-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	chatapi.Version = Version
	server.Version = Version
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args, err := cli.Parse()
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		if !args.JSON {
			fmt.Fprintln(os.Stderr, "Run 'elysian help' for usage.")
		}
		return cli.GetExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, cmd, args); err != nil {
		if err == cli.ErrNotConfirmed {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return cli.ExitGeneralError
		}
		out := os.Stderr
		if args.JSON {
			out = os.Stdout
		}
		cli.DisplayError(out, err, args.JSON)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// dispatch loads config and logging, then runs cmd.
func dispatch(ctx context.Context, cmd cli.Command, args cli.Args) error {
	cfg, path, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}

	// The full-screen UI owns the terminal; its logs go to the file only.
	if err := cli.SetupLogging(cfg, args, cmd != cli.CmdTUI); err != nil {
		return err
	}
	defer logging.Close()

	logging.Event(ctx, slog.LevelDebug, "STARTUP", "command", cmd.String(), "version", Version, "config", path)

	switch cmd {
	case cli.CmdConfig:
		return cli.HandleConfig(args, cfg, path, os.Stdout)
	case cli.CmdServe:
		return cli.HandleServe(ctx, args, cfg, os.Stdout)
	}

	app, err := cli.OpenApp(ctx, args, cfg, path)
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd {
	case cli.CmdTUI:
		return runTUI(ctx, app)
	case cli.CmdChat:
		return cli.HandleChat(ctx, app)
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, app)
	case cli.CmdHistory:
		return cli.HandleHistory(ctx, app)
	case cli.CmdClear:
		return cli.HandleClear(ctx, app)
	case cli.CmdExport:
		return cli.HandleExport(ctx, app)
	default:
		return fmt.Errorf("command %s is not runnable", cmd)
	}
}

// runTUI runs the full-screen chat until the user quits or ctx ends. Edits
// to the config file are applied while it runs.
func runTUI(ctx context.Context, app *cli.App) error {
	opts := chat.OptionsFromConfig(app.Config)
	opts.Context = ctx

	m := chat.New(app.Coord, opts)
	m.SetEndpoint(app.Config.Chat.Endpoint, app.Config.Chat.TimeoutSecs)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Wheel scrolling in the message list
	)

	if w := watchConfig(ctx, app, p); w != nil {
		defer w.Close()
	}

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running elysian: %w", err)
	}
	return nil
}

// watchConfig forwards config file edits to the program. Failing to watch
// is logged and otherwise ignored.
func watchConfig(ctx context.Context, app *cli.App, p *tea.Program) *config.Watcher {
	if app.ConfigPath == "" {
		return nil
	}
	if err := config.EnsureConfigDir(); err != nil {
		logging.Event(ctx, slog.LevelWarn, "CONFIG_WATCH_FAILED", "error", err.Error())
		return nil
	}

	w, err := config.NewWatcher(app.ConfigPath,
		func(cfg *config.Config) {
			if err := cli.ApplyFlagOverrides(cfg, app.Args); err != nil {
				logging.Event(ctx, slog.LevelWarn, "CONFIG_RELOAD_REJECTED", "error", err.Error())
				return
			}
			p.Send(chat.ConfigReloadedMsg{Config: cfg})
		},
		func(err error) {
			logging.Event(ctx, slog.LevelWarn, "CONFIG_WATCH_ERROR", "error", err.Error())
		},
	)
	if err != nil {
		logging.Event(ctx, slog.LevelWarn, "CONFIG_WATCH_FAILED", "path", app.ConfigPath, "error", err.Error())
		return nil
	}
	w.Start(ctx)
	return w
}
