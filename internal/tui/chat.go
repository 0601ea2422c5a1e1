package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/mono/internal/chat"
	"github.com/julianstephens/mono/internal/models"
)

// chatEventMsg means the session transcript or status changed.
type chatEventMsg struct{}

// chatDoneMsg carries the result of one Submit.
type chatDoneMsg struct {
	reply models.Message
	err   error
}

type chatModel struct {
	session  *chat.Session
	events   chan tea.Msg
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	cancel   context.CancelFunc
	st       styles
}

func newChatModel(session *chat.Session, st styles) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask Mo anything…"
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	c := chatModel{
		session:  session,
		events:   make(chan tea.Msg, 64),
		viewport: viewport.New(0, 0),
		input:    ta,
		spinner:  sp,
		st:       st,
	}
	events := c.events
	notify := func() {
		select {
		case events <- chatEventMsg{}:
		default:
		}
	}
	session.OnUpdate = notify
	session.OnStatus = func(chat.Status) { notify() }
	return c
}

func (c chatModel) waitForEvent() tea.Cmd {
	events := c.events
	return func() tea.Msg { return <-events }
}

func (c *chatModel) setSize(width, height int) {
	c.input.SetWidth(width)
	c.viewport.Width = width
	c.viewport.Height = max(height-c.input.Height()-2, 1)
	c.refresh()
}

// submit sends the input in the background. The input is disabled while
// the session is busy.
func (c *chatModel) submit(ctx context.Context) tea.Cmd {
	text := strings.TrimSpace(c.input.Value())
	if text == "" || c.session.Busy() {
		return nil
	}
	c.input.Reset()
	c.input.Blur()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	session := c.session
	return tea.Batch(
		func() tea.Msg {
			defer cancel()
			reply, err := session.Submit(ctx, text)
			return chatDoneMsg{reply: reply, err: err}
		},
		c.spinner.Tick,
	)
}

func (c *chatModel) stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *chatModel) reset() {
	c.stop()
	c.session.Reset()
	c.refresh()
}

func (c chatModel) update(msg tea.Msg, keys KeyMap, ctx context.Context) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case chatEventMsg:
		c.refresh()
		return c, c.waitForEvent()
	case chatDoneMsg:
		c.cancel = nil
		c.input.Focus()
		c.refresh()
		return c, nil
	case spinner.TickMsg:
		if !c.session.Busy() {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Reset):
			c.reset()
			return c, nil
		case key.Matches(msg, keys.Stop):
			c.stop()
			return c, nil
		case key.Matches(msg, keys.Send):
			return c, c.submit(ctx)
		}
		if c.session.Busy() {
			var cmd tea.Cmd
			c.viewport, cmd = c.viewport.Update(msg)
			return c, cmd
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	cmds = append(cmds, cmd)
	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return c, tea.Batch(cmds...)
}

// refresh re-renders the transcript and scrolls to the newest message.
func (c *chatModel) refresh() {
	c.viewport.SetContent(c.render())
	c.viewport.GotoBottom()
}

func (c chatModel) render() string {
	st := c.st
	wrap := lipgloss.NewStyle().Width(max(c.viewport.Width-2, 10))
	var b strings.Builder
	for _, m := range c.session.Messages() {
		switch m.Role {
		case models.RoleUser:
			b.WriteString(st.user.Render("You") + "\n")
		case models.RoleAssistant:
			b.WriteString(st.mo.Render("Mo") + "\n")
		default:
			continue
		}
		for _, inv := range m.ToolInvocations {
			line := "⚙ " + inv.ToolName
			if inv.State == models.ToolStateResult {
				line += " ✓"
			}
			b.WriteString(st.tool.Render(line) + "\n")
		}
		if m.Content != "" {
			b.WriteString(wrap.Render(m.Content) + "\n")
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return st.muted.Render("Say hi to Mo.")
	}
	return b.String()
}

func (c chatModel) view() string {
	st := c.st
	status := ""
	switch c.session.Status() {
	case chat.StatusSubmitted, chat.StatusStreaming:
		status = c.spinner.View() + " Mo is thinking…"
	case chat.StatusError:
		if err := c.session.Err(); err != nil && !errors.Is(err, context.Canceled) {
			status = st.danger.Render("Something went wrong. Press enter to try again.")
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		c.viewport.View(),
		status,
		c.input.View(),
	)
}
