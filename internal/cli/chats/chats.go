package chats

import (
	"fmt"
	"strings"

	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/tui"
)

// ChatCmd opens the TUI straight on the assistant screen.
type ChatCmd struct{}

func (c *ChatCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	return tui.Run(ctx.Context(), st, ctx.NewSession(), true, tui.WithNotify(ctx.NotifyFunc()))
}

type AskCmd struct {
	Question []string `arg:"" help:"Question for Mo."`
	Tools    bool     `help:"Also print the tools Mo called."`
}

func (c *AskCmd) Run(ctx *cli.Context) error {
	session := ctx.NewSession()
	reply, err := session.Submit(ctx.Context(), strings.Join(c.Question, " "))
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if c.Tools {
		for _, inv := range reply.ToolInvocations {
			ctx.Printf("🔧 %s(%s) [%s]\n", inv.ToolName, string(inv.Args), inv.State)
		}
	}
	ctx.Println(reply.Content)
	return nil
}

type CompleteCmd struct {
	Prompt []string `arg:"" help:"Prompt to complete."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	prompt := strings.TrimSpace(strings.Join(c.Prompt, " "))
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	text, err := ctx.Client.Complete(ctx.Context(), prompt)
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}
	ctx.Println(text)
	return nil
}
