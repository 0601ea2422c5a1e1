// Package tasklist is the filterable task list shown in the Tasks section.
// It only emits messages; the parent model applies them to the state.
package tasklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/mono/internal/models"
)

type (
	AddTaskMsg    struct{}
	ToggleTaskMsg struct{ ID string }
	DeleteTaskMsg struct{ ID string }
	EditTaskMsg   struct{ Task models.Task }
)

// Item adapts a task to list.Item. The title carries the scheduled time so
// the list reads in day order at a glance.
type Item struct {
	Task models.Task
}

func (i Item) Title() string {
	mark := "○"
	if i.Task.Completed {
		mark = "✓"
	}
	return mark + " " + i.Task.Time + "  " + i.Task.Title
}

func (i Item) Description() string {
	if i.Task.Completed {
		return "done"
	}
	return "pending"
}

func (i Item) FilterValue() string { return i.Task.Title }

type KeyMap struct {
	Toggle key.Binding
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	bind := func(help, desc string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
	}
	return KeyMap{
		Toggle: bind("space", "done/undo", " ", "x"),
		Add:    bind("a", "add", "a"),
		Edit:   bind("e", "edit", "e"),
		Delete: bind("d", "delete", "d"),
	}
}

// Bindings lists the keys in help order.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Edit, k.Delete}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(tasks []models.Task, width, height int) Model {
	keys := DefaultKeyMap()
	l := list.New(toItems(tasks), list.NewDefaultDelegate(), width, height)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.AdditionalShortHelpKeys = keys.Bindings
	return Model{list: l, keys: keys}
}

func toItems(tasks []models.Task) []list.Item {
	out := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Item{Task: t})
	}
	return out
}

// SetTasks replaces the items and keeps the cursor on the previously
// selected task when it survived the refresh.
func (m *Model) SetTasks(tasks []models.Task) {
	prev, hadPrev := m.Selected()
	m.list.SetItems(toItems(tasks))
	if !hadPrev {
		return
	}
	for idx, t := range tasks {
		if t.ID == prev.ID {
			m.list.Select(idx)
			return
		}
	}
}

func (m Model) Len() int { return len(m.list.Items()) }

func (m Model) Selected() (models.Task, bool) {
	it, ok := m.list.SelectedItem().(Item)
	return it.Task, ok
}

func (m Model) Keys() KeyMap { return m.keys }

// Filtering reports whether the user is typing a filter query, in which case
// every key belongs to the list.
func (m Model) Filtering() bool { return m.list.FilterState() == list.Filtering }

func (m Model) Init() tea.Cmd { return nil }

// emit wraps the selected task into a message, or does nothing when the
// list is empty.
func (m Model) emit(build func(models.Task) tea.Msg) tea.Cmd {
	t, ok := m.Selected()
	if !ok {
		return nil
	}
	return func() tea.Msg { return build(t) }
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, isKey := msg.(tea.KeyMsg)
	if isKey && !m.Filtering() {
		switch {
		case key.Matches(km, m.keys.Add):
			return m, func() tea.Msg { return AddTaskMsg{} }
		case key.Matches(km, m.keys.Toggle):
			return m, m.emit(func(t models.Task) tea.Msg { return ToggleTaskMsg{ID: t.ID} })
		case key.Matches(km, m.keys.Edit):
			return m, m.emit(func(t models.Task) tea.Msg { return EditTaskMsg{Task: t} })
		case key.Matches(km, m.keys.Delete):
			return m, m.emit(func(t models.Task) tea.Msg { return DeleteTaskMsg{ID: t.ID} })
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Len() == 0 && !m.Filtering() {
		return "\n  No tasks yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
