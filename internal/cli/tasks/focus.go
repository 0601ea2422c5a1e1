package tasks

import (
	"time"

	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/focus"
	"github.com/julianstephens/mono/internal/logger"
)

// newTicker is swapped out by tests.
var newTicker = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// focusReportEvery spaces out the progress lines during a focus block.
const focusReportEvery = 5 * time.Minute

// FocusCmd runs a Mono Mode session in the terminal and ends at the break.
type FocusCmd struct {
	Length    time.Duration `help:"Length of the focus block." default:"25m"`
	Countdown time.Duration `help:"Breathing countdown before the block starts." default:"5s"`
}

func (c *FocusCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	if task, ok := st.FocusTask(); ok {
		ctx.Printf("Focus: %s  %s\n", task.Time, task.Title)
	}

	sess := focus.New(c.Countdown, c.Length)
	sess.Start(st.Now())
	ctx.Println("Take a deep breath...")
	lastCount := -1

	ticks, stop := newTicker(time.Second)
	defer stop()
	for {
		select {
		case <-ctx.Context().Done():
			ctx.Println("Focus session stopped.")
			return nil
		case <-ticks:
		}

		now := st.Now()
		switch sess.Tick(now) {
		case focus.EventFocusStarted:
			ctx.Printf("Focus session started: %s\n", focus.FormatRemaining(sess.Remaining(now)))
			logger.Debug("Focus session started", "length", sess.Length())
		case focus.EventBreak:
			ctx.Println(focus.BreakMessage)
			c.notify(ctx)
			return nil
		default:
			left := sess.Remaining(now)
			switch sess.Phase() {
			case focus.PhaseCountdown:
				if n := int(left / time.Second); n != lastCount && n > 0 {
					lastCount = n
					ctx.Printf("%d...\n", n)
				}
			case focus.PhaseFocus:
				if left%focusReportEvery == 0 {
					ctx.Printf("%s left\n", focus.FormatRemaining(left))
				}
			}
		}
	}
}

// notify is best effort: the tray app may not be running.
func (c *FocusCmd) notify(ctx *cli.Context) {
	if ctx.Notifier == nil {
		return
	}
	if err := ctx.Notifier.Notify(ctx.Context(), focus.BreakMessage); err != nil {
		logger.Warn("Could not send break notification", "error", err)
	}
}
