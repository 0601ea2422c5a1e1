package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/mono/internal/chat"
	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/focus"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
	"github.com/julianstephens/mono/internal/tui/components/tasklist"
)

const toastDuration = 4 * time.Second

func (m *Model) showToast(text string) tea.Cmd {
	m.toast = text
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{} })
}

// report turns a failed action into a toast. The state has already logged it.
func (m *Model) report(action string, err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return m.showToast(fmt.Sprintf("Could not %s: %v", action, err))
}

// focusTickMsg is one second of a Mono Mode run.
type focusTickMsg struct {
	run int
	at  time.Time
}

func (m Model) focusTick() tea.Cmd {
	run := m.focusRun
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return focusTickMsg{run: run, at: t}
	})
}

// startFocus opens Mono Mode at the top of the breathing countdown.
func (m *Model) startFocus() tea.Cmd {
	m.screen = screenFocus
	m.focusRun++
	m.focusAt = m.state.Now()
	m.focus.Reset(m.focusAt)
	return m.focusTick()
}

func (m Model) notifyBreak() tea.Cmd {
	notify, ctx := m.notify, m.ctx
	if notify == nil {
		return nil
	}
	return func() tea.Msg {
		if err := notify(ctx, focus.BreakMessage); err != nil {
			logger.Debug("Break notification not sent", "error", err)
		}
		return nil
	}
}

func (m *Model) openForm(kind formKind, form *huh.Form) tea.Cmd {
	m.returnTo = m.screen
	if m.returnTo == screenForm {
		m.returnTo = screenSections
	}
	m.form = form.WithShowHelp(true)
	m.formKind = kind
	m.screen = screenForm
	if m.width > 0 {
		m.form = m.form.WithWidth(m.width - 4)
	}
	return m.form.Init()
}

func (m *Model) openOnboarding() tea.Cmd {
	m.onboardForm = &OnboardingFormModel{}
	return m.openForm(formOnboarding, newOnboardingForm(m.onboardForm))
}

func (m *Model) closeForm() {
	m.form = nil
	m.screen = m.returnTo
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.taskList.SetSize(msg.Width-4, msg.Height-6)
		m.chat.setSize(msg.Width-4, msg.Height-4)
		if m.form != nil {
			m.form = m.form.WithWidth(msg.Width - 4)
		}
		return m, nil

	case stateChangedMsg:
		switch constants.ChangeKind(msg.Kind) {
		case constants.ChangeTasks, constants.ChangeLoaded:
			m.taskList.SetTasks(m.state.SortedTasks())
		case constants.ChangeTheme:
			m.st = newStyles(m.state.Theme())
			m.chat.st = m.st
			m.chat.refresh()
		}
		return m, m.waitForChange()

	case clearToastMsg:
		m.toast = ""
		return m, nil

	case chatDoneMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.update(msg, m.keys, m.ctx)
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) && !errors.Is(msg.err, chat.ErrEmptyMessage) && !errors.Is(msg.err, chat.ErrReset) {
			logger.Warn("Chat request failed", "error", msg.err)
			return m, tea.Batch(cmd, m.showToast("Mo could not answer: "+msg.err.Error()))
		}
		return m, cmd

	case chatEventMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.update(msg, m.keys, m.ctx)
		return m, cmd

	case focusTickMsg:
		if m.screen != screenFocus || msg.run != m.focusRun {
			return m, nil
		}
		m.focusAt = msg.at
		switch m.focus.Tick(msg.at) {
		case focus.EventBreak:
			return m, tea.Batch(m.showToast(focus.BreakMessage), m.notifyBreak(), m.focusTick())
		case focus.EventFocusStarted:
			logger.Debug("Focus session started", "length", m.focus.Length())
		}
		return m, m.focusTick()
	}

	switch m.screen {
	case screenForm:
		return m.updateForm(msg)
	case screenConfirmDelete:
		return m.updateConfirmDelete(msg)
	case screenChat:
		return m.updateChat(msg)
	case screenFocus:
		return m.updateFocus(msg)
	}
	return m.updateSections(msg)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		if k.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		// Onboarding cannot be skipped.
		if k.Type == tea.KeyEsc && m.formKind != formOnboarding {
			m.closeForm()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if err := m.applyForm(); err != nil {
			// Stay in the form so the user can fix the input.
			m.form.State = huh.StateNormal
			return m, tea.Batch(cmd, m.report("save", err))
		}
		m.closeForm()
	case huh.StateAborted:
		if m.formKind == formOnboarding {
			m.quitting = true
			return m, tea.Quit
		}
		m.closeForm()
	}
	return m, cmd
}

func (m *Model) applyForm() error {
	switch m.formKind {
	case formOnboarding:
		_, err := m.state.CompleteOnboarding(m.onboardForm.Name, m.onboardForm.Avatar)
		return err
	case formAddTask:
		_, err := m.state.AddTask(m.ctx, m.taskForm.Title, m.taskForm.Time)
		return err
	case formEditTask:
		_, err := m.state.EditTask(m.ctx, m.taskForm.ID, &m.taskForm.Title, &m.taskForm.Time)
		return err
	case formMood:
		_, err := m.state.TrackMood(m.ctx, models.MoodLevel(m.moodForm.Mood), models.EnergyLevel(m.moodForm.Energy))
		return err
	case formHighlight:
		return m.state.UpdateHighlight(m.highlightForm.Text)
	}
	return nil
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "y", "Y":
		id := m.taskToDeleteID
		m.taskToDeleteID = ""
		m.screen = screenSections
		return m, m.report("delete task", m.state.RemoveTask(m.ctx, id))
	case "n", "N", "esc", "q":
		m.taskToDeleteID = ""
		m.screen = screenSections
	}
	return m, nil
}

func (m Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case k.String() == "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case key.Matches(k, m.keys.Back):
			m.screen = screenSections
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.chat, cmd = m.chat.update(msg, m.keys, m.ctx)
	return m, cmd
}

func (m Model) updateFocus(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case k.String() == "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case key.Matches(k, m.keys.Back), key.Matches(k, m.keys.Quit):
		m.focus.Stop()
		m.focusRun++
		m.screen = screenSections
	case key.Matches(k, m.keys.Restart):
		return m, m.startFocus()
	}
	return m, nil
}

func (m Model) updateSections(msg tea.Msg) (tea.Model, tea.Cmd) {
	inTasks := m.state.Section() == sectionTasks
	if _, isKey := msg.(tea.KeyMsg); isKey && inTasks && m.taskList.Filtering() {
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tasklist.AddTaskMsg:
		m.taskForm = &TaskFormModel{Time: m.state.Now().Format(constants.TimeFormat)}
		return m, m.openForm(formAddTask, newTaskForm(m.taskForm))
	case tasklist.EditTaskMsg:
		m.taskForm = &TaskFormModel{ID: msg.Task.ID, Title: msg.Task.Title, Time: msg.Task.Time}
		return m, m.openForm(formEditTask, newTaskForm(m.taskForm))
	case tasklist.ToggleTaskMsg:
		_, err := m.state.ToggleTask(m.ctx, msg.ID)
		return m, m.report("update task", err)
	case tasklist.DeleteTaskMsg:
		m.taskToDeleteID = msg.ID
		m.screen = screenConfirmDelete
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			return m, m.report("change section", m.state.NextSection())
		case key.Matches(msg, m.keys.ShiftTab):
			return m, m.report("change section", m.state.PrevSection())
		case key.Matches(msg, m.keys.Chat):
			m.screen = screenChat
			return m, nil
		case key.Matches(msg, m.keys.Focus):
			return m, m.startFocus()
		case key.Matches(msg, m.keys.Theme):
			next := models.ThemeDark
			if m.state.Theme() == models.ThemeDark {
				next = models.ThemeLight
			}
			return m, m.report("change theme", m.state.UpdateTheme(next))
		}

		switch m.state.Section() {
		case sectionToday:
			if key.Matches(msg, m.keys.Highlight) {
				m.highlightForm = &HighlightFormModel{Text: m.state.DailyHighlight()}
				return m, m.openForm(formHighlight, newHighlightForm(m.highlightForm, m.state.HighlightSuggestions()))
			}
		case sectionMood:
			if key.Matches(msg, m.keys.Mood) {
				m.moodForm = &MoodFormModel{Mood: string(models.MoodNeutral), Energy: string(models.EnergyMedium)}
				if today, ok := m.state.TodayMood(); ok {
					m.moodForm.Mood, m.moodForm.Energy = string(today.Mood), string(today.Energy)
				}
				return m, m.openForm(formMood, newMoodForm(m.moodForm))
			}
		}
	}

	if inTasks {
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd
	}
	return m, nil
}
