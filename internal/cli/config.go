// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   get <key>           Display one value
//   set <key> <value>   Set a value in the config file
//   reset --confirm     Write the default configuration
//   path                Show configuration file path
//
// Examples:
//   elysian config
//   elysian config get chat.endpoint
//   elysian config set chat.endpoint http://localhost:9000/api/chat
//   elysian config set chat.timeout_secs 30
//   elysian config set ui.theme light
//   elysian config set server.allowed_origins "http://localhost:3000,http://localhost:5173"
//
// A running TUI picks up changes written by set.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/elysian-tui/internal/config"
)

// secretKeys are displayed redacted.
var secretKeys = map[string]bool{
	"storage.redis_url": true,
}

// HandleConfig runs a config subcommand. cfg is the effective configuration
// and path the file it was loaded from (or would be).
func HandleConfig(args Args, cfg *config.Config, path string, out io.Writer) error {
	switch args.Subcommand {
	case "", "show", "list":
		return showConfig(args, cfg, path, out)
	case "get":
		return getConfig(args, cfg, out)
	case "set":
		return setConfig(args, path, out)
	case "reset":
		return resetConfig(args, path, out)
	case "path":
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}).Print(out)
		}
		fmt.Fprintln(out, path)
		return nil
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown subcommand",
			Example: "elysian config [show|get|set|reset|path]",
		}
	}
}

func showConfig(args Args, cfg *config.Config, path string, out io.Writer) error {
	if args.JSON {
		return NewJSONResponse("config show", json.RawMessage(cfg.String())).Print(out)
	}

	fmt.Fprintln(out, TitleStyle.Render("elysian configuration"))
	fmt.Fprintln(out, DimStyle.Render(path))
	fmt.Fprintln(out)

	section := ""
	for _, key := range config.GetAllKeys() {
		if !strings.Contains(key, ".") {
			continue
		}
		if s, _, _ := strings.Cut(key, "."); s != section {
			if section != "" {
				fmt.Fprintln(out)
			}
			section = s
			fmt.Fprintln(out, TitleStyle.Render("["+section+"]"))
		}
		fmt.Fprintf(out, "  %-28s %s\n", key, displayValue(cfg, key))
	}
	return nil
}

func getConfig(args Args, cfg *config.Config, out io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "elysian config get chat.endpoint")
	}
	if _, err := cfg.Get(args.ConfigKey); err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error()}
	}

	value := displayValue(cfg, args.ConfigKey)
	if args.JSON {
		return NewJSONResponse("config get", map[string]string{"key": args.ConfigKey, "value": value}).Print(out)
	}
	fmt.Fprintln(out, value)
	return nil
}

// setConfig edits the file itself, not the effective config, so that
// environment and flag overrides are not written back.
func setConfig(args Args, path string, out io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "elysian config set ui.theme dark")
	}

	cfg, err := readConfigFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return &ValidationError{Field: args.ConfigKey, Value: args.ConfigVal, Reason: err.Error()}
	}

	check := cfg.Clone()
	if err := check.SetDefaults(); err != nil {
		return &config.LoadError{Path: path, Err: err}
	}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTo(cfg, path); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config set", map[string]string{
			"key":   args.ConfigKey,
			"value": displayValue(cfg, args.ConfigKey),
			"path":  path,
		}).Print(out)
	}
	if !args.Quiet {
		fmt.Fprintf(out, "%s %s = %s\n", SuccessStyle.Render("[OK]"), args.ConfigKey, displayValue(cfg, args.ConfigKey))
	}
	return nil
}

func resetConfig(args Args, path string, out io.Writer) error {
	confirmed, err := RequireConfirmation("reset "+path+" to defaults", ConfirmationOptions{
		ConfirmFlag: args.Option("confirm", "") == "true" || containsFlag(args.Raw, "--confirm"),
		JSONMode:    args.JSON,
		Interactive: IsTTY(),
		In:          os.Stdin,
		Out:         out,
	})
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTo(config.Default(), path); err != nil {
		return err
	}
	if !args.Quiet {
		fmt.Fprintf(out, "%s Configuration reset: %s\n", SuccessStyle.Render("[OK]"), path)
	}
	return nil
}

// readConfigFile decodes path over the defaults, without env overrides.
// A missing file yields the defaults.
func readConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	var err error
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = config.LoadJSON(cfg, path)
	} else {
		err = config.LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, &config.LoadError{Path: path, Err: err}
	}
	return cfg, nil
}

func displayValue(cfg *config.Config, key string) string {
	v, err := cfg.Get(key)
	if err != nil {
		return ""
	}
	s := fmt.Sprint(v)
	if list, ok := v.([]string); ok {
		s = strings.Join(list, ",")
	}
	if secretKeys[strings.ToLower(key)] && s != "" {
		return "[REDACTED]"
	}
	return s
}

func containsFlag(raw []string, flag string) bool {
	for _, a := range raw {
		if a == flag {
			return true
		}
	}
	return false
}
