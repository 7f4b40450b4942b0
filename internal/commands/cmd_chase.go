package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/nhle/ops-board/internal/model"
)

type ChaseCmd struct {
	flags *Flags
	app   *App

	// flags
	tone string
}

// NewChaseCmd creates a new chase command
func NewChaseCmd(flags *Flags, app *App) *ChaseCmd {
	return &ChaseCmd{flags: flags, app: app}
}

// Register adds the chase command to the application
func (cmd *ChaseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "chase",
		Usage:     "Draft a follow-up message for a waiting task",
		UsageText: "opsboard chase [--tone chat|email] ID",
		Description: `Without --tone the message adapts to how long the task has been waiting.
With --tone it uses the chat or email reminder template.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "tone",
				Usage:       "chat or email",
				Destination: &cmd.tone,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ChaseCmd) run(_ context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}

	var msg string
	switch tone := model.Tone(cmd.tone); tone {
	case "":
		msg, err = cmd.app.Board.ChaseMessage(id)
	case model.ToneChat, model.ToneEmail:
		msg, err = cmd.app.Board.RemindMessage(id, tone)
	default:
		return fmt.Errorf("unknown tone %q", cmd.tone)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.Root().Writer, msg)
	return err
}
