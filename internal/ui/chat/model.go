// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/elysian-tui/internal/chatapi"
	"github.com/jeranaias/elysian-tui/internal/config"
	"github.com/jeranaias/elysian-tui/internal/coordinator"
	"github.com/jeranaias/elysian-tui/internal/logging"
	"github.com/jeranaias/elysian-tui/internal/ui/styles"
)

// DefaultTitle is shown in the header when no title is configured.
const DefaultTitle = "Elysian Circle"

const (
	inputHeight = 3
	emptyText   = "No messages yet. Say hello!"
	loadingText = "Loading..."
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat view.
type Options struct {
	Title        string
	Theme        *styles.Theme
	Markdown     bool
	SmoothScroll bool
	ShowHelp     bool

	// Context is passed to every request. It should live as long as the
	// program.
	Context context.Context
}

// OptionsFromConfig builds view options from the UI section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Title:        cfg.UI.Title,
		Theme:        styles.NewTheme(cfg.UI.Theme),
		Markdown:     cfg.UI.Markdown,
		SmoothScroll: cfg.UI.SmoothScroll,
		ShowHelp:     cfg.UI.ShowHelp,
	}
}

// =============================================================================
// MODEL DEFINITION
// =============================================================================

// Model is the chat view. It projects the coordinator's state and feeds it
// submissions; it never mutates the conversation directly.
type Model struct {
	coord *coordinator.Coordinator
	ctx   context.Context

	theme    *styles.Theme
	title    string
	markdown bool
	smooth   bool
	showHelp bool

	keys     KeyMap
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	scroll   scroller

	// awaiting is set from Begin until the outcome is delivered.
	awaiting bool

	// failed drives the error banner. It is set from the outcome flag, never
	// from message text, except once at start-up (see New).
	failed     bool
	bannerText string
	notice     string

	width  int
	height int
	ready  bool

	lastCount int

	md      *glamour.TermRenderer
	mdWidth int
	mdDark  bool

	endpoint string
	timeout  int
}

// New creates a chat view over coord. The coordinator's store should already
// be loaded.
func New(coord *coordinator.Coordinator, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.ModeAuto)
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap = textareaKeyMap(keys)
	ta.FocusedStyle.Placeholder = opts.Theme.Placeholder
	ta.BlurredStyle.Placeholder = opts.Theme.Placeholder
	ta.Focus()
	if d := coord.Draft(); d != "" {
		ta.SetValue(d)
	}

	sp := spinner.New()
	sp.Spinner = opts.Theme.LoaderSpinner()
	sp.Style = opts.Theme.Loader

	h := help.New()
	h.Styles.ShortKey = opts.Theme.Help
	h.Styles.ShortDesc = opts.Theme.Help
	h.Styles.FullKey = opts.Theme.Help
	h.Styles.FullDesc = opts.Theme.Help

	m := Model{
		coord:    coord,
		ctx:      opts.Context,
		theme:    opts.Theme,
		title:    opts.Title,
		markdown: opts.Markdown,
		smooth:   opts.SmoothScroll,
		showHelp: opts.ShowHelp,
		keys:     keys,
		input:    ta,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		help:     h,
		scroll:   newScroller(),
	}

	// After a restart the outcome flag is gone; the stored error text is the
	// only trace of a failed last exchange.
	if last, ok := coord.Store().Last(); ok && last.IsAssistant() && last.Text == coordinator.ErrorText {
		m.failed = true
		m.bannerText = last.Text
	}

	m.lastCount = coord.Store().Len()
	m.syncGuard()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		// Wheel scrolling takes over from any animation in progress.
		m.scroll.stop()
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case OutcomeMsg:
		return m.handleOutcome(msg)

	case ClearedMsg:
		return m.handleCleared(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		if !m.awaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case scrollTickMsg:
		if msg.gen != m.scroll.gen || !m.scroll.active {
			return m, nil
		}
		offset, done := m.scroll.step()
		m.viewport.SetYOffset(offset)
		if done {
			return m, nil
		}
		return m, m.scroll.tick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)
	m.spinner.Spinner = m.theme.LoaderSpinner()
	m.ready = true

	m.layout()
	m.refresh()
	m.scroll.stop()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Clear):
		return m, m.clearCmd()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.scroll.stop()
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.scroll.stop()
		m.viewport.ViewDown()
		return m, nil

	case msg.Type == tea.KeyEnter && !msg.Alt:
		// Plain Enter always lands here, whether or not the guard passes,
		// so it never reaches the textarea as a newline.
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.coord.SetDraft(m.input.Value())
	m.syncGuard()
	return m, cmd
}

// submit hands the current input to the coordinator. An empty draft or a
// pending request makes it a no-op.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "/clear" {
		m.input.Reset()
		m.coord.SetDraft("")
		m.syncGuard()
		return m, m.clearCmd()
	}

	m.coord.SetDraft(text)
	ticket, err := m.coord.Begin()
	switch {
	case errors.Is(err, coordinator.ErrEmptyDraft):
		return m, nil
	case errors.Is(err, coordinator.ErrBusy):
		m.notice = "Still waiting for the previous reply."
		if m.coord.State() == coordinator.StateClearing {
			m.notice = "Still clearing the conversation."
		}
		m.layout()
		return m, nil
	case err != nil:
		return m, nil
	}

	m.awaiting = true
	m.notice = ""
	m.syncGuard()
	m.layout()
	m.refresh()

	return m, tea.Batch(
		m.spinner.Tick,
		m.runCmd(ticket),
		m.scrollToBottom(),
	)
}

// runCmd performs the request off the update loop.
func (m Model) runCmd(t coordinator.Ticket) tea.Cmd {
	coord, ctx := m.coord, m.ctx
	return func() tea.Msg {
		return OutcomeMsg{Outcome: coord.Run(ctx, t)}
	}
}

func (m Model) clearCmd() tea.Cmd {
	coord, ctx := m.coord, m.ctx
	return func() tea.Msg {
		return ClearedMsg{Err: coord.Clear(ctx)}
	}
}

func (m Model) handleOutcome(msg OutcomeMsg) (tea.Model, tea.Cmd) {
	out := msg.Outcome
	m.awaiting = false

	if out.Failed {
		m.failed = true
		m.bannerText = out.Assistant.Text
	} else {
		m.failed = false
		m.bannerText = ""
	}

	m.notice = ""
	if out.SaveErr != nil {
		m.notice = "History not saved: " + out.SaveErr.Error()
	}

	// The coordinator decides what happens to the draft; mirror it.
	if d := m.coord.Draft(); d != m.input.Value() {
		m.input.SetValue(d)
	}
	m.syncGuard()

	m.layout()
	return m, m.refresh()
}

func (m Model) handleCleared(msg ClearedMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, coordinator.ErrBusy):
		m.notice = "Can't clear while a reply is pending."
	case msg.Err != nil:
		m.notice = "Clear failed: " + msg.Err.Error()
	default:
		m.failed = false
		m.bannerText = ""
		m.notice = ""
	}

	m.layout()
	m.refresh()
	m.scroll.stop()
	m.viewport.GotoTop()
	return m, nil
}

// handleConfigReloaded applies the live-reloadable settings.
func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}

	if cfg.Chat.Endpoint != m.endpoint || cfg.Chat.TimeoutSecs != m.timeout {
		m.coord.SetSender(chatapi.NewClient(cfg.Chat.Endpoint).WithTimeout(cfg.Chat.Timeout()))
		m.endpoint = cfg.Chat.Endpoint
		m.timeout = cfg.Chat.TimeoutSecs
	}
	if cfg.Chat.KeepDraftOnError {
		m.coord.WithDraftPolicy(coordinator.RestoreDraftOnError)
	} else {
		m.coord.WithDraftPolicy(coordinator.ClearDraftOnError)
	}

	if cfg.UI.Theme != m.theme.Mode {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.theme.SetSize(m.width, m.height)
		m.spinner.Style = m.theme.Loader
		m.md = nil
	}
	m.title = cfg.UI.Title
	if m.title == "" {
		m.title = DefaultTitle
	}
	m.markdown = cfg.UI.Markdown
	m.smooth = cfg.UI.SmoothScroll
	m.showHelp = cfg.UI.ShowHelp
	if !m.smooth {
		m.scroll.stop()
	}

	logging.Event(m.ctx, slog.LevelInfo, "CONFIG_APPLIED",
		"endpoint", m.endpoint, "markdown", m.markdown, "smooth_scroll", m.smooth)

	m.layout()
	m.refresh()
	return m, nil
}

// SetEndpoint records the endpoint the coordinator's sender was built for, so
// a reload with the same value does not rebuild the client.
func (m *Model) SetEndpoint(endpoint string, timeoutSecs int) {
	m.endpoint = endpoint
	m.timeout = timeoutSecs
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// syncGuard mirrors the submit guard onto the help entry.
func (m *Model) syncGuard() {
	m.keys.Submit.SetEnabled(m.coord.CanSubmit())
}

// refresh re-renders the message list into the viewport. When the message
// sequence changed it returns the command that brings the end into view.
func (m *Model) refresh() tea.Cmd {
	m.viewport.SetContent(m.renderMessages())

	n := m.coord.Store().Len()
	if n == m.lastCount {
		return nil
	}
	m.lastCount = n
	return m.scrollToBottom()
}

// scrollToBottom animates the viewport to its last line, or jumps there when
// smooth scrolling is off.
func (m *Model) scrollToBottom() tea.Cmd {
	target := m.viewport.TotalLineCount() - m.viewport.Height
	if target < 0 {
		target = 0
	}
	if !m.smooth || !m.ready {
		m.viewport.SetYOffset(target)
		return nil
	}
	if target == m.viewport.YOffset && !m.scroll.active {
		return nil
	}
	return m.scroll.start(m.viewport.YOffset, target)
}

// Failed reports whether the error banner is showing.
func (m Model) Failed() bool {
	return m.failed
}

// Awaiting reports whether a submission is waiting for its outcome.
func (m Model) Awaiting() bool {
	return m.awaiting
}

// Input returns the current input text.
func (m Model) Input() string {
	return m.input.Value()
}
