package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ModelCmd struct {
	flags *Flags
	app   *App
}

// NewModelCmd creates a new model command
func NewModelCmd(flags *Flags, app *App) *ModelCmd {
	return &ModelCmd{flags: flags, app: app}
}

// Register adds the model command to the application
func (cmd *ModelCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "model",
		Usage: "Show or change the analysis model",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Print the selected model",
				Action: cmd.runGet,
			},
			{
				Name:      "set",
				Usage:     "Select and persist a model",
				UsageText: "opsboard model set NAME",
				Action:    cmd.runSet,
			},
		},
		Action: cmd.runGet,
	})
	return app
}

func (cmd *ModelCmd) runGet(_ context.Context, c *cli.Command) error {
	_, err := fmt.Fprintln(c.Root().Writer, cmd.app.Board.Model())
	return err
}

func (cmd *ModelCmd) runSet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one model name")
	}
	if err := cmd.app.Board.SetModel(ctx, c.Args().First()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.Root().Writer, "Model set to %s\n", cmd.app.Board.Model())
	return err
}
