// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Commands over the stored conversation.
//
//   elysian history [--json]             Print the conversation
//   elysian clear [--confirm]            Erase it
//   elysian export [--format md|json|txt|html] [--output FILE | --save]
//
// export writes to stdout unless --output or --save is given. --save uses
// a generated file name in the working directory.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/elysian-tui/internal/coordinator"
	"github.com/jeranaias/elysian-tui/internal/export"
	"github.com/jeranaias/elysian-tui/internal/model"
)

// historyResult is the --json payload for history.
type historyResult struct {
	Messages []model.Message `json:"messages"`
	Count    int             `json:"count"`
}

// HandleHistory prints the stored conversation.
func HandleHistory(_ context.Context, app *App) error {
	msgs := app.Store.Messages()

	if app.Args.JSON {
		return NewJSONResponse("history", historyResult{Messages: msgs, Count: len(msgs)}).Print(app.Out)
	}

	if len(msgs) == 0 {
		if !app.Args.Quiet {
			fmt.Fprintln(app.Out, DimStyle.Render("No messages yet. Say hello!"))
		}
		return nil
	}

	for i, m := range msgs {
		if i > 0 && m.IsUser() && !app.Args.Quiet {
			fmt.Fprintln(app.Out, RenderSeparator(min(GetTerminalWidth(), 70)))
		}
		fmt.Fprintf(app.Out, "%s %s\n", RenderLabel(m), m.Text)
	}
	return nil
}

// HandleClear erases the stored conversation after confirmation.
func HandleClear(ctx context.Context, app *App) error {
	n := app.Store.Len()

	confirmed, err := RequireConfirmation(fmt.Sprintf("delete %d stored messages", n), ConfirmationOptions{
		ConfirmFlag: app.Args.Option("confirm", "") == "true" || app.Args.Option("yes", "") == "true",
		JSONMode:    app.Args.JSON,
		Interactive: app.Interactive,
		In:          app.In,
		Out:         app.Out,
	})
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	if err := app.Coord.Clear(ctx); err != nil {
		if errors.Is(err, coordinator.ErrBusy) {
			return NewCommandError("clear", "clear", "a request is in progress", err)
		}
		return NewCommandError("clear", "clear", "could not erase stored conversation", err)
	}

	if app.Args.JSON {
		return NewJSONResponse("clear", map[string]int{"deleted": n}).Print(app.Out)
	}
	if !app.Args.Quiet {
		fmt.Fprintf(app.Out, "%s Cleared %d messages\n", SuccessStyle.Render("[OK]"), n)
	}
	return nil
}

// HandleExport renders the conversation in the requested format.
func HandleExport(_ context.Context, app *App) error {
	format := app.Args.Option("format", "md")
	opts := export.DefaultOptions()
	if theme := app.Args.Option("theme", ""); theme != "" {
		opts.Theme = theme
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return ErrUnsupportedFormat(format, export.Formats)
	}

	t := export.NewTranscript(app.Config.UI.Title, app.Store.Messages())
	if len(t.Messages) == 0 {
		return export.ErrEmpty
	}

	output := app.Args.Option("output", "")
	if output == "" && app.Args.Option("save", "") != "true" {
		content, err := exporter.Export(t)
		if err != nil {
			return NewCommandError("export", "render", format, err)
		}
		_, err = app.Out.Write(content)
		return err
	}

	path, err := export.ExportToFile(t, exporter, output)
	if err != nil {
		return NewCommandError("export", "write", format, err)
	}

	if app.Args.JSON {
		return NewJSONResponse("export", map[string]interface{}{
			"path":     path,
			"format":   format,
			"messages": len(t.Messages),
		}).Print(app.Out)
	}
	if !app.Args.Quiet {
		fmt.Fprintf(app.Out, "%s Exported %d messages to %s\n",
			SuccessStyle.Render("[OK]"), len(t.Messages), path)
	}
	return nil
}
