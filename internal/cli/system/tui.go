package system

import (
	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	return tui.Run(ctx.Context(), st, ctx.NewSession(), false, tui.WithNotify(ctx.NotifyFunc()))
}
