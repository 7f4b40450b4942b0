package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/nhle/ops-board/internal/board"
)

type DataCmd struct {
	flags *Flags
	app   *App

	// flags
	output string
	yes    bool
}

// NewDataCmd creates the export, import and reset commands.
func NewDataCmd(flags *Flags, app *App) *DataCmd {
	return &DataCmd{flags: flags, app: app}
}

// Register adds the data commands to the application
func (cmd *DataCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "export",
			Usage:     "Write the board to a JSON backup",
			UsageText: "opsboard export [-o FILE|-]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "output",
					Aliases:     []string{"o"},
					Usage:       "file to write, - for stdout (default ops_backup_<date>.json)",
					Destination: &cmd.output,
				},
			},
			Action: cmd.runExport,
		},
		&cli.Command{
			Name:      "import",
			Usage:     "Replace the board with a JSON backup",
			UsageText: "opsboard import FILE",
			Action:    cmd.runImport,
		},
		&cli.Command{
			Name:      "reset",
			Usage:     "Delete every task",
			UsageText: "opsboard reset [--yes]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "yes",
					Aliases:     []string{"y"},
					Usage:       "skip the confirmation prompt",
					Destination: &cmd.yes,
				},
			},
			Action: cmd.runReset,
		},
	)
	return app
}

func (cmd *DataCmd) runExport(_ context.Context, c *cli.Command) error {
	b := cmd.app.Board

	if cmd.output == "-" {
		return b.Export(c.Root().Writer)
	}

	path := cmd.output
	if path == "" {
		path = board.ExportFilename(b.Now())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := b.Export(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Exported to %s\n", path)
	return nil
}

func (cmd *DataCmd) runImport(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return errors.New("expected the path of a backup file")
	}
	path := c.Args().First()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	state, err := cmd.app.Board.Import(ctx, f)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Imported %d task(s), %d done\n", len(state.Tasks), len(state.DoneIDs))
	return nil
}

func (cmd *DataCmd) runReset(ctx context.Context, c *cli.Command) error {
	if !cmd.yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("refusing to reset without --yes when stdin is not a terminal")
		}

		confirmed := false
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Delete every task on the board?").
				Description("Export first if you may want them back.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&confirmed),
		)).RunWithContext(ctx)
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !confirmed {
			_, _ = fmt.Fprintln(c.Root().Writer, "Cancelled")
			return nil
		}
	}

	if err := cmd.app.Board.Reset(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.Root().Writer, "Board cleared")
	return nil
}
