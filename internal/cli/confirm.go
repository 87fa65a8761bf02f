// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.
//
//  1. If --confirm is present, proceed without prompting
//  2. In --json mode, require --confirm (no interactive prompts)
//  3. If stdin is not a TTY, require --confirm (can't prompt)
//  4. Otherwise ask y/N
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotConfirmed is returned when the user declines a destructive action.
var ErrNotConfirmed = errors.New("cancelled")

// ConfirmationOptions describes how a confirmation may be obtained.
type ConfirmationOptions struct {
	// ConfirmFlag indicates --confirm was passed
	ConfirmFlag bool
	// JSONMode indicates --json was passed
	JSONMode bool
	// Interactive is false when stdin is not a terminal
	Interactive bool

	In  io.Reader
	Out io.Writer
}

// RequireConfirmation reports whether the user confirmed action.
// An error is returned when confirmation is required but cannot be asked for.
func RequireConfirmation(action string, opts ConfirmationOptions) (bool, error) {
	if opts.ConfirmFlag {
		return true, nil
	}

	if opts.JSONMode {
		return false, &ValidationError{
			Field:   "confirm",
			Reason:  "use --confirm for destructive actions in JSON mode",
			Example: "elysian --json clear --confirm",
		}
	}

	if !opts.Interactive || opts.In == nil {
		return false, &TTYRequiredError{Operation: "confirm " + action + "; use --confirm"}
	}

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Are you sure you want to %s? [y/N]: ", action)
	}

	input, err := bufio.NewReader(opts.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
