// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot ask command.
//
// Command: ask
// Short:   Send one message and print the reply
//
// Examples:
//   elysian ask "Hello there"
//   elysian --json ask "Hello there"
//   echo "$(elysian ask 'hi')" | wc -c      Piped output is plain text
//
// The exchange is appended to the stored conversation exactly as the
// full-screen UI would append it.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/elysian-tui/internal/coordinator"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownOnce     sync.Once
	markdownRenderer *glamour.TermRenderer
)

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	markdownOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(GetTerminalWidth()-2),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// displayResponse writes a reply, rendered as markdown when pretty is set.
func displayResponse(w io.Writer, response string, pretty bool) {
	if pretty {
		fmt.Fprintln(w, renderMarkdown(response))
		return
	}
	fmt.Fprintln(w, response)
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// askResult is the --json payload for ask.
type askResult struct {
	User       string `json:"user"`
	Reply      string `json:"reply"`
	Failed     bool   `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
	Saved      bool   `json:"saved"`
}

// HandleAsk submits app.Args.Query once and prints the reply. A failed
// request prints the error text and returns the request error.
func HandleAsk(ctx context.Context, app *App) error {
	app.Coord.SetDraft(app.Args.Query)

	if app.Interactive && !app.Args.Quiet && !app.Args.JSON {
		fmt.Fprintln(app.Err, DimStyle.Render("Waiting for reply..."))
	}

	out, err := app.Coord.Submit(ctx)
	if err != nil {
		if err == coordinator.ErrEmptyDraft {
			return ErrMissingArgument("text", `elysian ask "your message"`)
		}
		return err
	}

	if out.SaveErr != nil && !app.Args.JSON {
		fmt.Fprintf(app.Err, "%s history not saved: %v\n", WarningStyle.Render("[WARN]"), out.SaveErr)
	}

	if app.Args.JSON {
		resp := NewJSONResponse("ask", askResult{
			User:       out.User.Text,
			Reply:      out.Assistant.Text,
			Failed:     out.Failed,
			DurationMs: out.Duration.Milliseconds(),
			Saved:      out.SaveErr == nil,
		})
		if out.Failed {
			msg := out.Err.Error()
			resp.Success = false
			resp.Error = &msg
		}
		if err := resp.Print(app.Out); err != nil {
			return err
		}
	} else {
		displayResponse(app.Out, out.Assistant.Text, app.Pretty && !out.Failed)
	}

	if out.Failed {
		err := NewCommandError("ask", "send", "no reply from "+app.Client.Endpoint(), out.Err)
		if app.Args.JSON {
			return Reported(err)
		}
		return err
	}
	return nil
}
