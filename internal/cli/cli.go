// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for elysian.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdHistory
	CmdClear
	CmdExport
	CmdConfig
	CmdServe
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:     "tui",
	CmdChat:    "chat",
	CmdAsk:     "ask",
	CmdHistory: "history",
	CmdClear:   "clear",
	CmdExport:  "export",
	CmdConfig:  "config",
	CmdServe:   "serve",
	CmdVersion: "version",
	CmdHelp:    "help",
}

// String returns the command name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// NeedsConversation reports whether the command works on the stored
// conversation and so needs storage opened.
func (c Command) NeedsConversation() bool {
	switch c {
	case CmdTUI, CmdChat, CmdAsk, CmdHistory, CmdClear, CmdExport:
		return true
	}
	return false
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Endpoint   string
	Storage    string
	Ephemeral  bool
	Quiet      bool
	Verbose    bool
	JSON       bool

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g. --format, --addr)
	Options map[string]string
}

// Option returns a command option or def when unset.
func (a Args) Option(name, def string) string {
	if v, ok := a.Options[name]; ok && v != "" {
		return v
	}
	return def
}

const usageText = `elysian - terminal chat client

Usage:
  elysian [flags] [command]

Commands:
  tui                        Full-screen chat (default)
  chat                       Line-based chat in the terminal
  ask <text...>              Send one message and print the reply
  history [--json]           Print the stored conversation
  clear --confirm            Erase the stored conversation
  export [--format F] [--output FILE]
                             Export the conversation (md, json, txt, html)
  config show                Show the effective configuration
  config path                Show the config file path
  config get <key>           Show one setting (e.g. chat.endpoint)
  config set <key> <value>   Change one setting and save it
  serve [--addr host:port]   Run a local chat API for development
  version                    Show version information
  help                       Show this help

Global Flags:
  --config PATH              Config file (default ~/.elysian/config.toml)
  --endpoint URL             Chat API endpoint (overrides chat.endpoint)
  --storage BACKEND          file, sqlite, redis or memory
  --ephemeral                Keep the conversation in memory only
  -q, --quiet                Minimal output
  -v, --verbose              Debug logging
  --json                     JSON output where supported

Keys (tui):
  Enter                      Send
  Alt+Enter, Ctrl+J          New line
  Ctrl+L, /clear             Clear chat history
  Esc, Ctrl+C                Quit

Examples:
  elysian
  elysian ask "What is the Elysian Circle?"
  elysian --endpoint http://localhost:9000/api/chat chat
  elysian export --format md --output chat.md
  elysian serve --addr :8081

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "elysian version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s\n", runtime.Version())
}

// Parse parses os.Args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and args.
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, parsedArgs, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, parsedArgs, err
	}

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs, nil
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs, nil

	case "chat", "repl":
		return CmdChat, parsedArgs, nil

	case "ask":
		parsedArgs.Query = strings.TrimSpace(strings.Join(remaining, " "))
		if parsedArgs.Query == "" {
			return CmdAsk, parsedArgs, ErrMissingArgument("text", `elysian ask "your message"`)
		}
		return CmdAsk, parsedArgs, nil

	case "history", "log":
		return CmdHistory, parsedArgs, nil

	case "clear":
		parseCommandOptions(&parsedArgs, remaining)
		return CmdClear, parsedArgs, nil

	case "export":
		parseCommandOptions(&parsedArgs, remaining)
		return CmdExport, parsedArgs, nil

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs, nil

	case "serve", "server":
		parseCommandOptions(&parsedArgs, remaining)
		return CmdServe, parsedArgs, nil

	case "version", "--version":
		return CmdVersion, parsedArgs, nil

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs, nil

	default:
		return CmdHelp, parsedArgs, &ValidationError{
			Field:   "command",
			Value:   cmd,
			Reason:  "unknown command",
			Example: "elysian help",
		}
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Global flags may appear before or after the command.
func parseGlobalFlags(args []string) ([]string, Args, error) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	valueOf := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", ErrMissingArgument(name, "elysian "+name+" VALUE")
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--ephemeral":
			parsedArgs.Ephemeral = true
		case "--config", "--endpoint", "--storage":
			v, err := valueOf(i, arg)
			if err != nil {
				return nil, parsedArgs, err
			}
			setGlobalValue(&parsedArgs, strings.TrimPrefix(arg, "--"), v)
			i++
		default:
			if name, v, ok := strings.Cut(arg, "="); ok {
				switch name {
				case "--config", "--endpoint", "--storage":
					setGlobalValue(&parsedArgs, strings.TrimPrefix(name, "--"), v)
					continue
				}
			}
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsedArgs, nil
}

func setGlobalValue(a *Args, name, value string) {
	switch name {
	case "config":
		a.ConfigPath = value
	case "endpoint":
		a.Endpoint = value
	case "storage":
		a.Storage = value
	}
}

// parseCommandOptions stores --name value and --flag options for a command.
func parseCommandOptions(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	for name, v := range p.flags {
		args.Options[name] = v
	}
	for name, v := range p.boolFlags {
		if v {
			args.Options[name] = "true"
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}
