package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/mono/internal/focus"
	"github.com/julianstephens/mono/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.screen {
	case screenForm:
		content = m.st.doc.Render(m.form.View())
	case screenConfirmDelete:
		content = m.viewConfirmDelete()
	case screenChat:
		content = m.st.doc.Render(m.chat.view())
	case screenFocus:
		content = m.viewFocus()
	default:
		content = m.viewSection()
	}

	parts := []string{m.viewTabs(), content}
	if m.toast != "" {
		parts = append(parts, m.st.toast.Render(m.toast))
	}
	if m.screen != screenForm {
		parts = append(parts, m.help.View(m))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range sectionTitles {
		if m.screen == screenSections && m.state.Section() == i {
			tabs = append(tabs, m.st.activeTab.Render(title))
		} else {
			tabs = append(tabs, m.st.inactiveTab.Render(title))
		}
	}
	if m.screen == screenChat {
		tabs = append(tabs, m.st.activeTab.Render("Mo"))
	} else {
		tabs = append(tabs, m.st.inactiveTab.Render("Mo"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewSection() string {
	switch m.state.Section() {
	case sectionTasks:
		return m.st.doc.Render(m.taskList.View())
	case sectionMood:
		return m.st.doc.Render(m.viewMood())
	}
	return m.st.doc.Render(m.viewToday())
}

func (m Model) viewToday() string {
	var b strings.Builder
	b.WriteString(m.st.title.Render(m.state.Greeting()) + "\n\n")

	b.WriteString(m.st.muted.Render("Highlight") + "\n")
	if h := m.state.DailyHighlight(); h != "" {
		b.WriteString("  ★ " + h + "\n\n")
	} else {
		b.WriteString(m.st.muted.Render("  Nothing yet. Press H to pick one.") + "\n\n")
	}

	done, total := m.state.TaskProgress()
	b.WriteString(m.st.muted.Render("Focus") + "\n")
	if task, ok := m.state.FocusTask(); ok {
		b.WriteString(fmt.Sprintf("  %s  %s\n", task.Time, task.Title))
	} else if total > 0 {
		b.WriteString("  All done for today 🎉\n")
	} else {
		b.WriteString(m.st.muted.Render("  No tasks yet.") + "\n")
	}
	b.WriteString(fmt.Sprintf("  %d/%d tasks complete\n\n", done, total))

	if mood, ok := m.state.TodayMood(); ok {
		b.WriteString(m.st.muted.Render("Mood") + "\n")
		b.WriteString(fmt.Sprintf("  %s %s, %s energy\n", mood.Mood.Emoji(), mood.Mood, mood.Energy))
	}

	if cs := m.state.Challenges(); len(cs) > 0 {
		c := cs[0]
		day := c.CurrentDay(m.state.Now())
		b.WriteString("\n" + m.st.muted.Render("Challenge") + "\n")
		b.WriteString(fmt.Sprintf("  %s, day %d/%d", c.Title, day, len(c.Days)))
		if d := c.Day(day); d != nil {
			b.WriteString(": " + d.Title)
		}
		b.WriteString("\n")
	}

	if !m.state.DatabaseReady() {
		b.WriteString("\n" + m.st.danger.Render("Database unavailable, showing saved tasks read-only.") + "\n")
	}
	return b.String()
}

func (m Model) viewMood() string {
	var b strings.Builder
	mood, ok := m.state.TodayMood()
	if !ok {
		b.WriteString("How are you today?\n")
		b.WriteString(m.st.muted.Render("Press m to check in.") + "\n")
	} else {
		b.WriteString(m.st.title.Render(fmt.Sprintf("%s %s, %s energy", mood.Mood.Emoji(), mood.Mood, mood.Energy)) + "\n\n")
		b.WriteString(m.state.MoodInsight(mood.Mood, mood.Energy) + "\n")
	}

	moods := m.state.Moods()
	if len(moods) > 0 {
		b.WriteString("\n" + m.st.muted.Render("Recent") + "\n")
		start := max(len(moods)-7, 0)
		for i := len(moods) - 1; i >= start; i-- {
			b.WriteString(fmt.Sprintf("  %s  %s %s\n", moods[i].Date, moods[i].Mood.Emoji(), moodLabel(moods[i])))
		}
	}
	return b.String()
}

func moodLabel(m models.Mood) string {
	return fmt.Sprintf("%s/%s", m.Mood, m.Energy)
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, max(m.height-4, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			m.st.danger.Render("Are you sure you want to delete this task?"),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}

func (m Model) viewFocus() string {
	now := m.focusAt.In(m.state.Now().Location())
	lines := []string{
		m.st.muted.Render(strings.ToUpper(now.Format("Mon, Jan 2, 2006"))),
		m.st.title.Render(now.Format("15:04")),
		"",
	}
	if task, ok := m.state.FocusTask(); ok {
		lines = append(lines, task.Title, "")
	}
	status := m.focus.Status(m.focusAt)
	if m.focus.Phase() == focus.PhaseBreak {
		lines = append(lines, m.st.title.Render(status), focus.BreakMessage)
	} else {
		lines = append(lines, status)
	}
	return lipgloss.Place(m.width, max(m.height-4, 9),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...),
	)
}
