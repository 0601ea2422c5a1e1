// Package tui is the interactive terminal front end: the three home
// sections, onboarding and the chat with Mo.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/mono/internal/appstate"
	"github.com/julianstephens/mono/internal/chat"
	"github.com/julianstephens/mono/internal/focus"
	"github.com/julianstephens/mono/internal/tui/components/tasklist"
)

type screen int

const (
	screenSections screen = iota
	screenChat
	screenForm
	screenConfirmDelete
	screenFocus
)

// Home sections, in swipe order.
const (
	sectionToday = iota
	sectionTasks
	sectionMood
)

var sectionTitles = []string{"Today", "Tasks", "Mood"}

// stateChangedMsg relays an appstate change notification.
type stateChangedMsg appstate.Change

type clearToastMsg struct{}

type Model struct {
	ctx      context.Context
	state    *appstate.State
	changes  <-chan appstate.Change
	stop     func()
	screen   screen
	keys     KeyMap
	help     help.Model
	st       styles
	taskList tasklist.Model
	chat     chatModel

	// Mono Mode. focusRun tags ticks so a reopened screen ignores the
	// previous run's timer.
	focus    *focus.Session
	focusRun int
	focusAt  time.Time
	notify   func(context.Context, string) error

	form          *huh.Form
	formKind      formKind
	returnTo      screen
	onboardForm   *OnboardingFormModel
	taskForm      *TaskFormModel
	moodForm      *MoodFormModel
	highlightForm *HighlightFormModel

	taskToDeleteID string
	toast          string
	quitting       bool
	width          int
	height         int
}

// Option configures a Model.
type Option func(*Model)

// WithNotify sends the end-of-focus message through fn, typically the tray
// notifier.
func WithNotify(fn func(context.Context, string) error) Option {
	return func(m *Model) { m.notify = fn }
}

// NewModel builds the UI over a loaded state. When openChat is set the
// chat screen is shown first.
func NewModel(ctx context.Context, state *appstate.State, session *chat.Session, openChat bool, opts ...Option) Model {
	changes, stop := state.Subscribe()
	st := newStyles(state.Theme())
	m := Model{
		ctx:      ctx,
		state:    state,
		changes:  changes,
		stop:     stop,
		screen:   screenSections,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		st:       st,
		taskList: tasklist.New(state.SortedTasks(), 0, 0),
		chat:     newChatModel(session, st),
		focus:    focus.New(0, 0),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if openChat {
		m.screen = screenChat
	}
	if state.NeedsOnboarding() {
		m.openOnboarding()
	}
	return m
}

func (m Model) ShortHelp() []key.Binding {
	switch m.screen {
	case screenChat:
		return []key.Binding{m.keys.Send, m.keys.Reset, m.keys.Stop, m.keys.Back}
	case screenFocus:
		return []key.Binding{m.keys.Restart, m.keys.Back}
	case screenSections:
		keys := []key.Binding{m.keys.Tab, m.keys.Chat, m.keys.Focus, m.keys.Theme}
		switch m.state.Section() {
		case sectionToday:
			keys = append(keys, m.keys.Highlight)
		case sectionTasks:
			keys = append(keys, m.taskList.Keys().Bindings()...)
		case sectionMood:
			keys = append(keys, m.keys.Mood)
		}
		return append(keys, m.keys.Quit, m.keys.Help)
	}
	return []key.Binding{m.keys.Back}
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForChange(), m.chat.waitForEvent(), textarea.Blink}
	if m.form != nil {
		cmds = append(cmds, m.form.Init())
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		c, ok := <-changes
		if !ok {
			return nil
		}
		return stateChangedMsg(c)
	}
}

// Close stops the state subscription and any chat request in flight.
func (m *Model) Close() {
	m.chat.stop()
	if m.stop != nil {
		m.stop()
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, state *appstate.State, session *chat.Session, openChat bool, opts ...Option) error {
	m := NewModel(ctx, state, session, openChat, opts...)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	return err
}
