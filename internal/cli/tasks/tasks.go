package tasks

import (
	"errors"
	"fmt"

	"github.com/julianstephens/mono/internal/appstate"
	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/models"
)

func taskID(t models.Task) string { return t.ID }

// find loads state and resolves ref against the current tasks.
func find(ctx *cli.Context, ref string) (*appstate.State, models.Task, error) {
	st, err := ctx.State()
	if err != nil {
		return nil, models.Task{}, err
	}
	task, err := cli.Resolve(st.Tasks(), taskID, ref, "task")
	if err != nil {
		return nil, models.Task{}, err
	}
	return st, task, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func mark(t models.Task) string {
	if t.Completed {
		return "✓"
	}
	return "○"
}

type TaskAddCmd struct {
	Title string `arg:"" help:"What needs doing."`
	Time  string `help:"Time of day (HH:MM). Defaults to now." short:"t"`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	at := c.Time
	if at == "" {
		at = st.Now().Format(constants.TimeFormat)
	}
	task, err := st.AddTask(ctx.Context(), c.Title, at)
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	ctx.Printf("Added task: %s at %s (ID: %s)\n", task.Title, task.Time, shortID(task.ID))
	return nil
}

type TaskListCmd struct {
	Pending bool `help:"Only show tasks that are not done."`
	IDs     bool `help:"Show full task IDs."`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	tasks := st.SortedTasks()
	if len(tasks) == 0 {
		ctx.Println("No tasks yet. Add one with 'mono task add'.")
		return nil
	}

	shown := 0
	for _, t := range tasks {
		if c.Pending && t.Completed {
			continue
		}
		id := shortID(t.ID)
		if c.IDs {
			id = t.ID
		}
		ctx.Printf("%s %s  %s  [%s]\n", mark(t), t.Time, t.Title, id)
		shown++
	}
	if shown == 0 {
		ctx.Println("All tasks are done.")
	}

	done, total := st.TaskProgress()
	ctx.Printf("\n%d of %d done\n", done, total)
	return nil
}

type TaskDoneCmd struct {
	ID   string `arg:"" help:"Task ID or unique prefix."`
	Undo bool   `help:"Mark the task as not done."`
}

func (c *TaskDoneCmd) Run(ctx *cli.Context) error {
	st, task, err := find(ctx, c.ID)
	if err != nil {
		return err
	}
	task, err = st.SetTaskCompleted(ctx.Context(), task.ID, !c.Undo)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	ctx.Printf("%s %s\n", mark(task), task.Title)
	return nil
}

type TaskToggleCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskToggleCmd) Run(ctx *cli.Context) error {
	st, task, err := find(ctx, c.ID)
	if err != nil {
		return err
	}
	task, err = st.ToggleTask(ctx.Context(), task.ID)
	if err != nil {
		return fmt.Errorf("failed to toggle task: %w", err)
	}
	ctx.Printf("%s %s\n", mark(task), task.Title)
	return nil
}

type TaskEditCmd struct {
	ID    string  `arg:"" help:"Task ID or unique prefix."`
	Title *string `help:"New title."`
	Time  *string `help:"New time of day (HH:MM)." short:"t"`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	if c.Title == nil && c.Time == nil {
		return errors.New("nothing to change: pass --title and/or --time")
	}
	st, task, err := find(ctx, c.ID)
	if err != nil {
		return err
	}
	task, err = st.EditTask(ctx.Context(), task.ID, c.Title, c.Time)
	if err != nil {
		return fmt.Errorf("failed to edit task: %w", err)
	}
	ctx.Printf("Updated task: %s at %s (ID: %s)\n", task.Title, task.Time, shortID(task.ID))
	return nil
}

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	st, task, err := find(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := st.RemoveTask(ctx.Context(), task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	ctx.Printf("Deleted task: %s (ID: %s)\n", task.Title, shortID(task.ID))
	return nil
}

// TaskRemindCmd pushes a task to the tray app as a desktop notification.
type TaskRemindCmd struct {
	ID string `arg:"" optional:"" help:"Task ID or unique prefix. Defaults to the focus task."`
}

func (c *TaskRemindCmd) Run(ctx *cli.Context) error {
	if ctx.Notifier == nil {
		return errors.New("notifications are disabled")
	}
	st, err := ctx.State()
	if err != nil {
		return err
	}

	var task models.Task
	if c.ID == "" {
		var ok bool
		if task, ok = st.FocusTask(); !ok {
			ctx.Println("Nothing left to do today.")
			return nil
		}
	} else if task, err = cli.Resolve(st.Tasks(), taskID, c.ID, "task"); err != nil {
		return err
	}

	if err := ctx.Notifier.NotifyTask(ctx.Context(), task); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	ctx.Printf("Reminder sent: %s\n", task.Title)
	return nil
}

// NowCmd prints the greeting, the focus task and today's progress.
type NowCmd struct{}

func (c *NowCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	ctx.Printf("%s\n\n", st.Greeting())

	if h := st.DailyHighlight(); h != "" {
		ctx.Printf("✨ Highlight: %s\n", h)
	}
	if t, ok := st.FocusTask(); ok {
		ctx.Printf("🎯 Focus:     %s at %s\n", t.Title, t.Time)
	} else {
		ctx.Println("🎯 Focus:     nothing left to do")
	}
	done, total := st.TaskProgress()
	ctx.Printf("📋 Progress:  %d/%d tasks\n", done, total)
	if m, ok := st.TodayMood(); ok {
		ctx.Printf("%s Mood:      %s, %s energy\n", m.Mood.Emoji(), m.Mood, m.Energy)
	}
	if !st.DatabaseReady() {
		ctx.Println("\n⚠️  Database unavailable, showing cached data only.")
	}
	return nil
}
