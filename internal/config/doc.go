// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for elysian.
//
// # Sources
//
// Values are resolved in this order, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. ~/.elysian/config.toml, or config.json if no TOML file exists
//  3. Variables from a .env file in the working directory (LoadDotEnv)
//  4. ELYSIAN_* environment variables (ApplyEnvOverrides)
//  5. Command-line flags, applied by the cli package
//
// # Example config.toml
//
//	[chat]
//	endpoint = "http://localhost:8081/api/chat"
//	timeout_secs = 0
//	keep_draft_on_error = true
//
//	[storage]
//	backend = "sqlite"
//	key = "chatMessages"
//
//	[ui]
//	title = "Elysian Circle"
//	markdown = true
//
// # Hot Reload
//
// Watcher re-reads the file when it changes and hands the validated result
// to a callback. The TUI uses this to pick up endpoint and display changes
// without a restart.
package config
