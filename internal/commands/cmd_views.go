package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/nhle/ops-board/internal/scoring"
)

type ViewsCmd struct {
	flags *Flags
	app   *App

	// flags
	bucket     string
	jsonOutput bool
}

// NewViewsCmd creates a new views command
func NewViewsCmd(flags *Flags, app *App) *ViewsCmd {
	return &ViewsCmd{flags: flags, app: app}
}

// Register adds the views command to the application
func (cmd *ViewsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "views",
		Usage:     "Print the ranked views",
		UsageText: "opsboard views [--bucket doer|manager|planner] [--json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bucket",
				Aliases:     []string{"b"},
				Usage:       "only print one view (doer, manager, planner)",
				Destination: &cmd.bucket,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ViewsCmd) run(_ context.Context, c *cli.Command) error {
	b := cmd.app.Board
	vs := b.Views(b.Now())

	var entries []scoring.Entry
	switch bucket := scoring.Bucket(cmd.bucket); bucket {
	case "":
		entries = vs.Enriched
	case scoring.BucketDoer, scoring.BucketManager, scoring.BucketPlanner:
		entries = vs.Entries(bucket)
	default:
		return fmt.Errorf("unknown bucket %q", cmd.bucket)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return writeJSON(out, entries)
	}
	return writeEntries(out, entries)
}

func writeEntries(out io.Writer, entries []scoring.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No active tasks")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCORE\tVIEW\tSTATUS\tID\tTASK")
	for _, e := range entries {
		score := fmt.Sprintf("%d", e.Score)
		if e.IsStale {
			score += "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", score, e.Bucket, e.Task.Status, e.Task.ID, e.Task.TaskName)
	}
	return w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
