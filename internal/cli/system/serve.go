package system

import (
	"net"

	"github.com/julianstephens/mono/internal/cli"
	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/devserver"
	"github.com/julianstephens/mono/internal/mcpserver"
)

type ServeCmd struct {
	Addr string `help:"Listen address." default:"${serve_addr}"`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	addr := cmd.Addr
	if addr == "" {
		addr = constants.DefaultServeAddr
	}
	return devserver.New().Run(ctx.Context(), addr, func(a net.Addr) {
		ctx.Printf("Serving the mono API on http://%s\n", a)
		ctx.Printf("Point the client at it with MONO_CHAT_URL=http://%s/api/chat\n", a)
	})
}

type McpCmd struct{}

// Run serves the MCP tools on stdin and stdout until the client hangs up.
func (cmd *McpCmd) Run(ctx *cli.Context) error {
	st, err := ctx.State()
	if err != nil {
		return err
	}
	return mcpserver.New(st).ServeStdio()
}
