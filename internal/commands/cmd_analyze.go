package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/nhle/ops-board/internal/ai"
	"github.com/nhle/ops-board/internal/intake"
	"github.com/nhle/ops-board/internal/model"
)

type AnalyzeCmd struct {
	flags *Flags
	app   *App

	// flags
	files  []string
	dryRun bool
}

// NewAnalyzeCmd creates a new analyze command
func NewAnalyzeCmd(flags *Flags, app *App) *AnalyzeCmd {
	return &AnalyzeCmd{flags: flags, app: app}
}

// Register adds the analyze command to the application
func (cmd *AnalyzeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "analyze",
		Usage:     "Turn free-form notes into tasks",
		UsageText: "opsboard analyze [--file GLOB]... [--dry-run] [TEXT...]",
		Description: `Each non-empty line of input is one item. Leading bullets and list numbers
are stripped and repeated lines are merged before analysis.

Input comes from the arguments, from files matching --file (doublestar
globs such as notes/**/*.md), or from stdin when it is piped.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "read notes from files matching the glob (repeatable)",
				Destination: &cmd.files,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "print the drafts without adding them",
				Destination: &cmd.dryRun,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *AnalyzeCmd) run(ctx context.Context, c *cli.Command) error {
	raw, err := cmd.readInput(c)
	if err != nil {
		return err
	}

	lines := intake.Prepare(raw)
	if len(lines) == 0 {
		return errors.New("no input lines to analyze")
	}

	b := cmd.app.Board
	drafts, err := cmd.app.Analyzer.Analyze(ctx, lines, b.ActiveTasks())
	if err != nil {
		cmd.app.Log.Error().Err(err).Msg("analyze failed")
		return errors.New(ai.UserMessage(err))
	}

	out := c.Root().Writer
	if cmd.dryRun {
		return writeTasks(out, drafts)
	}

	added, err := b.AddTasks(ctx, drafts)
	if err != nil {
		return fmt.Errorf("add tasks: %w", err)
	}

	_, _ = fmt.Fprintf(out, "%d line(s), %d draft(s), %d added\n", len(lines), len(drafts), len(added))
	if len(added) == 0 {
		return nil
	}
	return writeTasks(out, added)
}

func (cmd *AnalyzeCmd) readInput(c *cli.Command) (string, error) {
	var parts []string

	if c.Args().Len() > 0 {
		parts = append(parts, strings.Join(c.Args().Slice(), "\n"))
	}

	for _, pattern := range cmd.files {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return "", fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return "", fmt.Errorf("no files match %q", pattern)
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", path, err)
			}
			parts = append(parts, string(data))
		}
	}

	if len(parts) > 0 {
		return strings.Join(parts, "\n"), nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no input provided (stdin is a terminal); pass text, use --file, or pipe notes in")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func writeTasks(out io.Writer, tasks []model.Task) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tCATEGORY\tTASK")
	for _, t := range tasks {
		id := t.ID
		if id == "" {
			id = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, t.Status, t.Category, t.TaskName)
	}
	return w.Flush()
}
