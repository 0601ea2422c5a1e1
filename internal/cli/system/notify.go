package system

import (
	"errors"

	"github.com/julianstephens/mono/internal/cli"
)

type NotifyCmd struct {
	Text string `arg:"" help:"Notification text."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	if ctx.Notifier == nil {
		return errors.New("notifications are disabled")
	}
	return ctx.Notifier.Notify(ctx.Context(), c.Text)
}
