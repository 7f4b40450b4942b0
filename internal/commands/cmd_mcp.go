package commands

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nhle/ops-board/internal/mcpserver"
)

type McpCmd struct {
	flags *Flags
	app   *App
}

// NewMcpCmd creates a new mcp command
func NewMcpCmd(flags *Flags, app *App) *McpCmd {
	return &McpCmd{flags: flags, app: app}
}

// Register adds the mcp command to the application
func (cmd *McpCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "mcp",
		Usage: "Serve the board as MCP tools on stdio",
		Description: `Starts a Model Context Protocol server on stdin/stdout so assistants can
read the ranked views, add and complete tasks and draft chase messages.

Logs never go to stdout; set --log-file to keep them.`,
		Action: cmd.run,
	})
	return app
}

func (cmd *McpCmd) run(ctx context.Context, _ *cli.Command) error {
	s := mcpserver.NewServer(cmd.app.Board, cmd.app.Analyzer, cmd.app.Version)
	return mcpserver.Serve(ctx, s, os.Stdin, os.Stdout)
}
