// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based interactive chat.
//
// Command: chat
// Short:   Chat in the terminal without the full-screen UI
// Aliases: repl
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear conversation history
//   /history            Show conversation history
//   /quit, /q           Exit chat
//   line ending in \    Continue the message on the next line
//   Ctrl+C, Ctrl+D      Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/elysian-tui/internal/config"
	"github.com/jeranaias/elysian-tui/internal/coordinator"
	"github.com/jeranaias/elysian-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)
)

const (
	chatPrompt         = "you> "
	continuationPrompt = "...> "
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input for the chat loop.
type LineReader interface {
	ReadInput(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the line-based chat on the terminal.
func HandleChat(ctx context.Context, app *App) error {
	if !app.Interactive {
		return &TTYRequiredError{Operation: "chat"}
	}
	input := NewChatCLI()
	defer input.Close()
	return RunChat(ctx, app, input)
}

// RunChat is the chat loop. It returns nil when the user quits or input
// ends.
func RunChat(ctx context.Context, app *App, input LineReader) error {
	if !app.Args.Quiet {
		printWelcome(app)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		text, err := readMessage(input)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(app.Out)
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "/") && !strings.Contains(trimmed, "\n") {
			keepGoing, err := handleSlashCommand(ctx, app, trimmed)
			if err != nil {
				fmt.Fprintf(app.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		if strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit") {
			return nil
		}

		sendMessage(ctx, app, text)
	}
}

// readMessage reads one message. A line ending in a backslash continues on
// the next line, joined with a newline.
func readMessage(input LineReader) (string, error) {
	var lines []string
	prompt := promptStyle.Render(chatPrompt)
	for {
		line, err := input.ReadInput(prompt)
		if err != nil {
			if len(lines) > 0 && errors.Is(err, io.EOF) {
				return strings.Join(lines, "\n"), nil
			}
			return "", err
		}
		if !strings.HasSuffix(line, `\`) {
			lines = append(lines, line)
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, strings.TrimSuffix(line, `\`))
		prompt = promptStyle.Render(continuationPrompt)
	}
}

// sendMessage submits text and prints the settled reply.
func sendMessage(ctx context.Context, app *App, text string) {
	app.Coord.SetDraft(text)
	if !app.Args.Quiet {
		fmt.Fprintln(app.Err, DimStyle.Render("Loading..."))
	}

	out, err := app.Coord.Submit(ctx)
	if err != nil {
		if !errors.Is(err, coordinator.ErrEmptyDraft) {
			fmt.Fprintf(app.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		return
	}
	// The REPL has no editable draft to restore into.
	app.Coord.SetDraft("")

	fmt.Fprintf(app.Out, "%s ", RenderLabel(out.Assistant))
	if out.Failed {
		fmt.Fprintln(app.Out, ErrorStyle.Render(out.Assistant.Text))
		if app.Args.Verbose {
			fmt.Fprintf(app.Err, "%s %v\n", DimStyle.Render("cause:"), out.Err)
		}
	} else {
		if app.Pretty {
			fmt.Fprintln(app.Out)
		}
		displayResponse(app.Out, out.Assistant.Text, app.Pretty)
	}
	if out.SaveErr != nil {
		fmt.Fprintf(app.Err, "%s history not saved: %v\n", WarningStyle.Render("[WARN]"), out.SaveErr)
	}
	fmt.Fprintln(app.Out)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(ctx context.Context, app *App, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	switch strings.ToLower(parts[0]) {
	case "/help", "/h", "/?", "/":
		printHelp(app.Out)
		return true, nil

	case "/clear", "/c":
		if err := app.Coord.Clear(ctx); err != nil {
			return true, err
		}
		fmt.Fprintln(app.Out, commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/history":
		printHistory(app)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
}

func printWelcome(app *App) {
	fmt.Fprintln(app.Out, welcomeStyle.Render(app.Config.UI.Title))
	fmt.Fprintln(app.Out, DimStyle.Render("Endpoint: "+app.Client.Endpoint()))
	if n := app.Store.Len(); n > 0 {
		fmt.Fprintln(app.Out, DimStyle.Render(fmt.Sprintf("%d earlier messages (/history to show)", n)))
	}
	fmt.Fprintln(app.Out, DimStyle.Render(`Type a message and press Enter. End a line with \ to continue it. /help for commands.`))
	fmt.Fprintln(app.Out)
}

func printHelp(w io.Writer) {
	cmds := []struct{ name, desc string }{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear conversation history"},
		{"/history", "Show conversation history"},
		{"/quit, /q", "Exit chat"},
	}
	for _, c := range cmds {
		fmt.Fprintf(w, "  %s  %s\n", commandStyle.Render(fmt.Sprintf("%-12s", c.name)), c.desc)
	}
}

func printHistory(app *App) {
	msgs := app.Store.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(app.Out, DimStyle.Render("No messages yet. Say hello!"))
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(app.Out, "%s %s\n", RenderLabel(m), m.Text)
	}
}
