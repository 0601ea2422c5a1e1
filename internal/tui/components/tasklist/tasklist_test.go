package tasklist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/mono/internal/models"
)

func sample() []models.Task {
	return []models.Task{
		{ID: "a", Title: "Run", Time: "07:00"},
		{ID: "b", Title: "Read", Time: "21:00", Completed: true},
	}
}

func keyMsg(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestItem(t *testing.T) {
	open := Item{Task: models.Task{Title: "Run", Time: "07:00"}}
	done := Item{Task: models.Task{Title: "Read", Time: "21:00", Completed: true}}
	if open.Title() != "○ 07:00  Run" || done.Title() != "✓ 21:00  Read" {
		t.Errorf("titles = %q, %q", open.Title(), done.Title())
	}
	if open.Description() != "pending" || done.Description() != "done" {
		t.Errorf("descriptions = %q, %q", open.Description(), done.Description())
	}
	if open.FilterValue() != "Run" {
		t.Errorf("FilterValue() = %q", open.FilterValue())
	}
}

func TestUpdateEmitsActions(t *testing.T) {
	m := New(sample(), 40, 20)

	tests := []struct {
		key  string
		want tea.Msg
	}{
		{"a", AddTaskMsg{}},
		{" ", ToggleTaskMsg{ID: "a"}},
		{"x", ToggleTaskMsg{ID: "a"}},
		{"d", DeleteTaskMsg{ID: "a"}},
		{"e", EditTaskMsg{Task: sample()[0]}},
	}
	for _, tt := range tests {
		_, cmd := m.Update(keyMsg(tt.key))
		if cmd == nil {
			t.Fatalf("key %q produced no command", tt.key)
		}
		if got := cmd(); got != tt.want {
			t.Errorf("key %q = %#v, want %#v", tt.key, got, tt.want)
		}
	}
}

func TestEmptyListIgnoresItemActions(t *testing.T) {
	m := New(nil, 40, 20)
	if _, cmd := m.Update(keyMsg("d")); cmd != nil {
		if msg := cmd(); msg != nil {
			if _, ok := msg.(DeleteTaskMsg); ok {
				t.Error("delete emitted on empty list")
			}
		}
	}
	if m.View() == "" {
		t.Error("empty view")
	}
}

func TestKeyMapBindings(t *testing.T) {
	if got := len(DefaultKeyMap().Bindings()); got != 4 {
		t.Errorf("Bindings() has %d keys, want 4", got)
	}
}

func TestSetTasksKeepsSelection(t *testing.T) {
	m := New(sample(), 40, 20)
	m.list.Select(1)

	reordered := []models.Task{sample()[1], sample()[0], {ID: "c", Title: "Cook", Time: "18:00"}}
	m.SetTasks(reordered)

	got, ok := m.Selected()
	if !ok || got.ID != "b" {
		t.Errorf("Selected() = %+v", got)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d", m.Len())
	}
}

func TestFilteringSwallowsActionKeys(t *testing.T) {
	m := New(sample(), 40, 20)
	m, _ = m.Update(keyMsg("/"))
	if !m.Filtering() {
		t.Fatal("'/' did not start filtering")
	}

	_, cmd := m.Update(keyMsg("a"))
	if cmd == nil {
		return
	}
	if _, ok := cmd().(AddTaskMsg); ok {
		t.Error("'a' added a task while filtering")
	}
}
