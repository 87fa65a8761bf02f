// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Development chat API server.
//
// Command: serve
// Short:   Run a local chat endpoint the client can talk to
// Aliases: server
//
// Examples:
//   elysian serve                      Listen on server.addr (localhost:8081)
//   elysian serve --addr :9000
//
// The server answers POST /api/chat with an echo of the message, which is
// enough to exercise the client end to end without a real model.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/jeranaias/elysian-tui/internal/config"
	"github.com/jeranaias/elysian-tui/internal/logging"
	"github.com/jeranaias/elysian-tui/internal/server"
)

// shutdownTimeout bounds graceful shutdown after ctx is cancelled.
const shutdownTimeout = 10 * time.Second

// HandleServe runs the server until ctx is cancelled.
func HandleServe(ctx context.Context, args Args, cfg *config.Config, out io.Writer) error {
	addr := args.Option("addr", cfg.Server.Addr)

	srv := server.NewServer(server.Options{
		Addr:           addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RatePerSec:     cfg.Server.RatePerSec,
		Burst:          cfg.Server.Burst,
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return NewCommandError("serve", "listen", addr, err)
	}
	return ServeListener(ctx, srv, ln, args, out)
}

// ServeListener serves srv on ln until ctx is cancelled, then shuts down.
func ServeListener(ctx context.Context, srv *server.Server, ln net.Listener, args Args, out io.Writer) error {
	if !args.Quiet {
		fmt.Fprintf(out, "%s Listening on http://%s/api/chat (Ctrl+C to stop)\n",
			SuccessStyle.Render("[OK]"), ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Event(shutdownCtx, slog.LevelWarn, "SERVER_SHUTDOWN_FAILED", "error", err.Error())
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}

	if !args.Quiet {
		snap := srv.Stats().Snapshot()
		fmt.Fprintf(out, "Stopped after %d requests (%d errors)\n", snap.TotalRequests, snap.Errors)
	}
	return nil
}
