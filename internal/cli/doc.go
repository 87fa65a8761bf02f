// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// elysian.
//
// # Usage
//
//	cmd, args, err := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    return cli.HandleAsk(ctx, app)
//	case cli.CmdChat:
//	    return cli.HandleChat(ctx, app)
//	// ...
//	}
//
// Conversation commands share one App built by OpenApp: the configured
// storage backend, the hydrated conversation, and a coordinator that
// enforces one request at a time. ask, chat and the TUI all append to the
// same history.
//
// Commands return errors instead of printing them. DisplayError and
// GetExitCode turn them into output and an exit status. Every command
// that prints data honors --json.
package cli
