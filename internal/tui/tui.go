// Package tui implements the Bubble Tea terminal user interface for
// reviewing shields on a case.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/scanline-ai/shieldrev/internal/model"
	"github.com/scanline-ai/shieldrev/internal/review"
)

// stateMsg carries the engine state after an action completes.
type stateMsg struct {
	state review.State
}

// Model is the top-level Bubble Tea model for shieldrev.
type Model struct {
	engine *review.Engine
	state  review.State

	// UI state
	width  int
	height int

	// Shield list
	cursor int // currently selected shield

	// An operation command is outstanding; edits are fine, but no second
	// operation may start until its stateMsg lands.
	inflight bool

	// Transient one-line notice shown in the status bar.
	notice string

	// Help
	showHelp bool
}

// New creates a new TUI model around a review engine. The engine should
// be freshly constructed; LoadCase runs as the init command.
func New(engine *review.Engine) Model {
	return Model{
		engine: engine,
		state:  engine.State(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.operation(m.engine.LoadCase)
}

// operation wraps a blocking engine call in a tea command.
func (m Model) operation(fn func(context.Context) review.State) tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: fn(context.Background())}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		m.state = msg.state
		m.inflight = false
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.state.Shields)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Applied):
		m.setMode(model.ModeApplied)

	case key.Matches(msg, keys.Suggested):
		m.setMode(model.ModeSuggested)

	case key.Matches(msg, keys.Disabled):
		m.setMode(model.ModeDisabled)

	case key.Matches(msg, keys.Remove):
		if sh, ok := m.selected(); ok {
			m.state = m.engine.RemoveShield(sh.ID)
			m.clampCursor()
		}

	case key.Matches(msg, keys.CyclePages):
		m.cyclePages()

	case key.Matches(msg, keys.SaveVendor):
		return m.startOperation(m.engine.SaveVendorRules)

	case key.Matches(msg, keys.SaveTemplate):
		return m.startOperation(m.engine.SaveTemplateRules)

	case key.Matches(msg, keys.Rerun):
		return m.startOperation(m.engine.RerunExtraction)

	case key.Matches(msg, keys.Retry):
		return m.startOperation(m.engine.Retry)

	case key.Matches(msg, keys.Dismiss):
		if m.state.Type == review.StateErrorNonblocking {
			m.state = m.engine.DismissError()
		}
	}

	return m, nil
}

// startOperation launches a network-backed operation unless one is
// already outstanding.
func (m Model) startOperation(fn func(context.Context) review.State) (tea.Model, tea.Cmd) {
	if m.inflight || m.state.Busy() {
		m.notice = "operation already in flight"
		return m, nil
	}
	m.inflight = true
	return m, m.operation(fn)
}

func (m *Model) setMode(mode model.ApplyMode) {
	if sh, ok := m.selected(); ok {
		m.state = m.engine.SetApplyMode(sh.ID, mode)
	}
}

// cyclePages rotates the selected shield's page target all → first →
// last → all. Specific page sets drop back to all.
func (m *Model) cyclePages() {
	sh, ok := m.selected()
	if !ok {
		return
	}
	var next model.PageTarget
	switch sh.PageTarget.Kind {
	case model.PagesAll:
		next = model.FirstPage()
	case model.PagesFirst:
		next = model.LastPage()
	default:
		next = model.AllPages()
	}
	m.state = m.engine.SetPageTarget(sh.ID, next)
}

func (m Model) selected() (model.Shield, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Shields) {
		return model.Shield{}, false
	}
	return m.state.Shields[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.state.Shields) {
		m.cursor = len(m.state.Shields) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// overridden reports whether the shield carries an unsynced edit.
func (m Model) overridden(id string) bool {
	for _, o := range m.state.Overrides {
		if o.Shield.ID == id {
			return true
		}
	}
	return false
}

// Run starts the TUI application.
func Run(engine *review.Engine) error {
	m := New(engine)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
