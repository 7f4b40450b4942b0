package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/nhle/ops-board/internal/ai"
)

type IntakeCmd struct {
	flags *Flags
	app   *App
}

// NewIntakeCmd creates a new intake command
func NewIntakeCmd(flags *Flags, app *App) *IntakeCmd {
	return &IntakeCmd{flags: flags, app: app}
}

// Register adds the intake command to the application
func (cmd *IntakeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "intake",
		Usage: "Check the configured mailbox once and add new requests",
		Description: `Fetches unread mail from the intake mailbox, sends it through analysis and
adds the resulting tasks. Messages are marked read only after the board is
saved.`,
		Action: cmd.run,
	})
	return app
}

func (cmd *IntakeCmd) run(ctx context.Context, c *cli.Command) error {
	poller := cmd.app.NewPoller()
	if poller == nil {
		return errors.New("mail intake is disabled; set intake.enabled in the config")
	}

	res := poller.RunOnce(ctx)
	if res.Err != nil {
		return errors.New(ai.UserMessage(res.Err))
	}

	out := c.Root().Writer
	if len(res.Added) == 0 {
		_, _ = fmt.Fprintln(out, "No new requests")
		return nil
	}

	_, _ = fmt.Fprintf(out, "Added %d task(s)\n", len(res.Added))
	return writeTasks(out, res.Added)
}
