package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	boardview "github.com/nhle/ops-board/internal/ui/board"
)

type BoardCmd struct {
	flags *Flags
	app   *App

	// flags
	withIntake bool
}

// NewBoardCmd creates the board command, which is also the default action.
func NewBoardCmd(flags *Flags, app *App) *BoardCmd {
	return &BoardCmd{flags: flags, app: app}
}

// Flags returns the board flags so main can also register them on the root
// command.
func (cmd *BoardCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "intake",
			Usage:       "poll the configured mailbox while the board is open",
			Destination: &cmd.withIntake,
		},
	}
}

// Register adds the board command to the application
func (cmd *BoardCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "board",
		Usage: "Open the interactive board",
		Description: `Shows the doer, manager and planner views side by side.

Use h/l to move between views, j/k to select a task, c to complete it,
u to undo the last completion and m to draft a chase message.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})
	return app
}

// Run starts the TUI.
func (cmd *BoardCmd) Run(ctx context.Context, _ *cli.Command) error {
	var opts []boardview.Option

	if cmd.withIntake {
		poller := cmd.app.NewPoller()
		if poller == nil {
			return fmt.Errorf("mail intake is not enabled; set intake.enabled in %s", cmd.flags.ConfigPath)
		}
		pollCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go poller.Run(pollCtx)
		opts = append(opts, boardview.WithIntake(poller))
	}

	p := tea.NewProgram(boardview.New(cmd.app.Board, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}
