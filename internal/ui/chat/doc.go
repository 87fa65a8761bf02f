// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view.

The view is a projection of a coordinator.Coordinator: the message list comes
from its store, the loading indicator from its pending state, and the error
banner from the Failed flag of the last outcome. Keys only edit the draft or
ask the coordinator to act.

# Layout

	+--------------------------------------+
	| Elysian Circle                       |  header
	|--------------------------------------|
	| You: hello                           |
	| AI: world                            |  viewport
	| ... Loading...                       |
	|--------------------------------------|
	| Error fetching response from AI.     |  banner (after a failure)
	| > draft                              |  input
	| Enter send  Alt+Enter newline ...    |  help
	+--------------------------------------+

# Keys

	Enter            send the draft
	Alt+Enter, C-j   insert a newline
	C-l, /clear      clear the chat history
	PgUp, PgDn       scroll
	Esc, C-c         quit

# Requests

Enter calls Coordinator.Begin on the update loop, so the guard is checked
synchronously, and returns a command that calls Run. Run's outcome comes back
as an OutcomeMsg. While a request is pending the input stays editable and
further submissions are refused by the coordinator.
*/
package chat
