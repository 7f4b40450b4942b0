package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/model"
	"github.com/nhle/ops-board/internal/ui/taskform"
)

type TaskCmd struct {
	flags *Flags
	app   *App

	// add flags
	interactive bool
	values      taskform.Values

	// update flags
	name    string
	status  string
	due     string
	note    string
	channel string
	estMin  int
}

// NewTaskCmd creates the add, update, complete and undo commands.
func NewTaskCmd(flags *Flags, app *App) *TaskCmd {
	return &TaskCmd{flags: flags, app: app}
}

// Register adds the task commands to the application
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "add",
			Usage:     "Add a task by hand",
			UsageText: "opsboard add [-i] [--status STATUS] [--due YYYY-MM-DD] NAME",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "interactive",
					Aliases:     []string{"i"},
					Usage:       "fill in the task with a form",
					Destination: &cmd.interactive,
				},
				&cli.StringFlag{
					Name:  "status",
					Usage: "task status",
					Value: string(model.StatusReady),
					Action: func(_ context.Context, _ *cli.Command, v string) error {
						return validateStatus(v)
					},
					Destination: (*string)(&cmd.values.Status),
				},
				&cli.StringFlag{
					Name:        "category",
					Usage:       "task category",
					Destination: (*string)(&cmd.values.Category),
				},
				&cli.StringFlag{
					Name:        "next",
					Usage:       "first next action",
					Destination: &cmd.values.NextAction,
				},
				&cli.StringFlag{
					Name:        "due",
					Usage:       "due date (YYYY-MM-DD)",
					Destination: &cmd.values.Due,
				},
				&cli.StringFlag{
					Name:        "note",
					Usage:       "free-form note",
					Destination: &cmd.values.Note,
				},
			},
			Action: cmd.runAdd,
		},
		&cli.Command{
			Name:      "update",
			Usage:     "Edit a task and its metadata",
			UsageText: "opsboard update [--name NAME] [--status STATUS] [--due DATE|\"\"] [--note NOTE] ID",
			Description: `Only the flags that are given change. Pass --due "" to clear the due date.
Every update refreshes the task's last-updated time.`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Usage: "new task name", Destination: &cmd.name},
				&cli.StringFlag{Name: "status", Usage: "new status", Destination: &cmd.status},
				&cli.StringFlag{Name: "due", Usage: "due date (YYYY-MM-DD), empty to clear", Destination: &cmd.due},
				&cli.StringFlag{Name: "note", Usage: "note", Destination: &cmd.note},
				&cli.StringFlag{Name: "channel", Usage: "publishing channel", Destination: &cmd.channel},
				&cli.IntFlag{Name: "est", Usage: "estimated minutes", Destination: &cmd.estMin},
			},
			Action: cmd.runUpdate,
		},
		&cli.Command{
			Name:      "complete",
			Aliases:   []string{"done"},
			Usage:     "Mark a task done",
			UsageText: "opsboard complete ID",
			Action:    cmd.runComplete,
		},
		&cli.Command{
			Name:      "undo",
			Usage:     "Return a done task to the board",
			UsageText: "opsboard undo ID",
			Action:    cmd.runUndo,
		},
	)
	return app
}

func (cmd *TaskCmd) runAdd(ctx context.Context, c *cli.Command) error {
	var (
		task model.Task
		meta model.TaskMeta
		err  error
	)

	if cmd.interactive {
		task, meta, err = taskform.Run(ctx)
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
	} else {
		v := cmd.values
		v.Name = strings.Join(c.Args().Slice(), " ")
		task, meta, err = v.Build()
	}
	if err != nil {
		return err
	}

	added, err := cmd.app.Board.AddTask(ctx, task, meta)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Added %s %q\n", added.ID, added.TaskName)
	return nil
}

func (cmd *TaskCmd) runUpdate(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}

	var (
		tp board.TaskPatch
		mp board.MetaPatch
	)
	if c.IsSet("name") {
		tp.TaskName = &cmd.name
	}
	if c.IsSet("status") {
		if err := validateStatus(cmd.status); err != nil {
			return err
		}
		s := model.Status(cmd.status)
		tp.Status = &s
	}
	if c.IsSet("due") {
		mp.Due = &cmd.due
	}
	if c.IsSet("note") {
		mp.Note = &cmd.note
	}
	if c.IsSet("channel") {
		ch := model.Channel(cmd.channel)
		mp.Channel = &ch
	}
	if c.IsSet("est") {
		mp.EstMin = &cmd.estMin
	}

	task, err := cmd.app.Board.UpdateTask(ctx, id, tp, mp)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Updated %s %q\n", task.ID, task.TaskName)
	return nil
}

func (cmd *TaskCmd) runComplete(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	if err := cmd.app.Board.Complete(ctx, id); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Completed %s\n", id)
	return nil
}

func (cmd *TaskCmd) runUndo(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	if err := cmd.app.Board.Undo(ctx, id); err != nil {
		return fmt.Errorf("undo task: %w", err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Restored %s\n", id)
	return nil
}

func requireID(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one task ID, got %d argument(s)", c.Args().Len())
	}
	return c.Args().First(), nil
}

func validateStatus(s string) error {
	if !model.Status(s).IsKnown() {
		names := make([]string, 0, len(model.Statuses()))
		for _, st := range model.Statuses() {
			names = append(names, string(st))
		}
		return fmt.Errorf("unknown status %q (one of %s)", s, strings.Join(names, ", "))
	}
	return nil
}
