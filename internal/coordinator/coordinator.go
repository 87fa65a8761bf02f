// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package coordinator runs the submit cycle: validate the draft, send it,
// settle the outcome into the conversation, and return to idle.
//
// At most one request is in flight. The state machine is
//
//	Idle --Begin--> Sending --Run--> Idle
//
// and the settled outcome (success or failure) is reported from Run.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/elysian-tui/internal/chatapi"
	"github.com/jeranaias/elysian-tui/internal/conversation"
	"github.com/jeranaias/elysian-tui/internal/logging"
	"github.com/jeranaias/elysian-tui/internal/model"
)

// Fixed assistant texts used when there is no usable reply.
const (
	NoResponseText = "No response received."
	ErrorText      = "Error fetching response from AI."
)

// Guard errors returned by Begin.
var (
	ErrEmptyDraft = errors.New("nothing to send")
	ErrBusy       = errors.New("a request is already in progress")
)

// =============================================================================
// STATE
// =============================================================================

// State is the coordinator's request state.
type State int

const (
	StateIdle State = iota
	StateSending
	// StateClearing holds while the stored conversation is being erased.
	// Begin is refused until it returns to Idle.
	StateClearing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateClearing:
		return "clearing"
	default:
		return "unknown"
	}
}

// DraftPolicy decides what happens to the draft after a failed request.
type DraftPolicy int

const (
	// RestoreDraftOnError puts the submitted text back so it can be resent.
	RestoreDraftOnError DraftPolicy = iota
	// ClearDraftOnError discards the draft whatever the outcome.
	ClearDraftOnError
)

// Ticket identifies one accepted submission.
type Ticket struct {
	ID      string
	Text    string
	Started time.Time
}

// Outcome is the settled result of one submission.
type Outcome struct {
	Ticket    Ticket
	User      model.Message
	Assistant model.Message
	// Failed is set when the request itself failed. A missing reply is not a
	// failure.
	Failed bool
	// Err is the request error when Failed.
	Err error
	// SaveErr is set when the exchange could not be persisted. The exchange
	// is still in memory.
	SaveErr  error
	Duration time.Duration
}

// Snapshot is a consistent view of coordinator and conversation state.
type Snapshot struct {
	Messages []model.Message
	Pending  bool
	Draft    string
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator owns the draft and the request state for one conversation.
type Coordinator struct {
	mu     sync.Mutex
	state  State
	draft  string
	policy DraftPolicy

	store  *conversation.Store
	sender chatapi.Sender
}

// New creates an idle coordinator.
func New(store *conversation.Store, sender chatapi.Sender) *Coordinator {
	return &Coordinator{
		store:  store,
		sender: sender,
		policy: RestoreDraftOnError,
	}
}

// WithDraftPolicy sets the failure draft policy.
func (c *Coordinator) WithDraftPolicy(p DraftPolicy) *Coordinator {
	c.mu.Lock()
	c.policy = p
	c.mu.Unlock()
	return c
}

// SetSender swaps the client, e.g. after the endpoint changes. Takes effect
// on the next Begin; an in-flight request keeps the sender it started with.
func (c *Coordinator) SetSender(s chatapi.Sender) {
	c.mu.Lock()
	c.sender = s
	c.mu.Unlock()
}

// Store returns the conversation store.
func (c *Coordinator) Store() *conversation.Store {
	return c.store
}

// SetDraft replaces the draft text.
func (c *Coordinator) SetDraft(s string) {
	c.mu.Lock()
	c.draft = s
	c.mu.Unlock()
}

// Draft returns the draft text.
func (c *Coordinator) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending reports whether a request is in flight.
func (c *Coordinator) Pending() bool {
	return c.State() == StateSending
}

// CanSubmit reports whether Begin would accept the current draft.
func (c *Coordinator) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateIdle && strings.TrimSpace(c.draft) != ""
}

// Snapshot returns messages, pending flag, and draft.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	pending := c.state == StateSending
	draft := c.draft
	c.mu.Unlock()
	return Snapshot{
		Messages: c.store.Messages(),
		Pending:  pending,
		Draft:    draft,
	}
}

// Begin validates the draft and moves to Sending. The returned ticket must be
// passed to Run. The check and the transition happen under one lock, so of
// two concurrent callers at most one succeeds.
func (c *Coordinator) Begin() (Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return Ticket{}, ErrBusy
	}
	text := strings.TrimSpace(c.draft)
	if text == "" {
		return Ticket{}, ErrEmptyDraft
	}

	c.state = StateSending
	return Ticket{
		ID:      uuid.NewString(),
		Text:    text,
		Started: time.Now(),
	}, nil
}

// Run sends the ticket's text once and settles the outcome. It always returns
// the coordinator to Idle.
func (c *Coordinator) Run(ctx context.Context, t Ticket) Outcome {
	c.mu.Lock()
	sender := c.sender
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	ctx = logging.WithRequestID(ctx, t.ID)
	out := Outcome{
		Ticket: t,
		User:   model.NewUserMessage(t.Text),
	}

	reply, err := sender.Send(ctx, t.Text)
	out.Duration = time.Since(t.Started)

	if err != nil {
		out.Failed = true
		out.Err = err
		out.Assistant = model.NewAssistantMessage(ErrorText)
		logging.Event(ctx, slog.LevelError, "CHAT_FAILURE",
			"class", chatapi.Classify(err), "error", err.Error(),
			"duration_ms", out.Duration.Milliseconds())
	} else {
		if reply == "" {
			reply = NoResponseText
			logging.Event(ctx, slog.LevelWarn, "CHAT_EMPTY_REPLY")
		}
		out.Assistant = model.NewAssistantMessage(reply)
		logging.Event(ctx, slog.LevelInfo, "CHAT_SUCCESS",
			"reply_chars", len(reply), "duration_ms", out.Duration.Milliseconds())
	}

	out.SaveErr = c.store.Append(ctx, out.User, out.Assistant)

	c.mu.Lock()
	// Text typed while the request was pending is left alone; only a draft
	// still holding the submitted text is cleared.
	keep := out.Failed && c.policy == RestoreDraftOnError
	if !keep && strings.TrimSpace(c.draft) == t.Text {
		c.draft = ""
	}
	c.mu.Unlock()

	return out
}

// Submit runs Begin and Run back to back.
func (c *Coordinator) Submit(ctx context.Context) (Outcome, error) {
	t, err := c.Begin()
	if err != nil {
		return Outcome{}, err
	}
	return c.Run(ctx, t), nil
}

// Clear erases the conversation. Refused while a request is pending so a
// settling exchange cannot land in a history the user just cleared, and
// submissions are refused until the erase has finished.
func (c *Coordinator) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateClearing
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()
	return c.store.Clear(ctx)
}
