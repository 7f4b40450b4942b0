package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/nhle/ops-board/internal/ai"
	"github.com/nhle/ops-board/internal/model"
)

type ResolveCmd struct {
	flags *Flags
	app   *App

	// flags
	kind     string
	copyText bool
	raw      bool
}

// NewResolveCmd creates a new resolve command
func NewResolveCmd(flags *Flags, app *App) *ResolveCmd {
	return &ResolveCmd{flags: flags, app: app}
}

// Register adds the resolve command to the application
func (cmd *ResolveCmd) Register(app *cli.Command) *cli.Command {
	types := make([]string, 0, len(model.ResolveTypes()))
	for _, t := range model.ResolveTypes() {
		types = append(types, string(t))
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "resolve",
		Usage:     "Draft a deliverable for a task",
		UsageText: "opsboard resolve --type TYPE [--copy] ID",
		Description: `Asks the model for a ready-to-use draft (` + strings.Join(types, ", ") + `).
Output is rendered as Markdown when stdout is a terminal.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "type",
				Aliases:     []string{"t"},
				Usage:       "deliverable type (" + strings.Join(types, "|") + ")",
				Value:       string(model.ResolveCopy),
				Destination: &cmd.kind,
			},
			&cli.BoolFlag{
				Name:        "copy",
				Usage:       "print plain text for pasting into chat or email",
				Destination: &cmd.copyText,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print Markdown source without rendering",
				Destination: &cmd.raw,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ResolveCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}

	rt := model.ResolveType(cmd.kind)
	if !rt.IsValid() {
		return fmt.Errorf("unknown deliverable type %q", cmd.kind)
	}

	task, _, err := cmd.app.Board.Task(id)
	if err != nil {
		return err
	}

	result, err := cmd.app.Analyzer.Resolve(ctx, task, rt)
	if err != nil {
		cmd.app.Log.Error().Err(err).Str("id", id).Msg("resolve failed")
		return errors.New(ai.UserMessage(err))
	}

	out := c.Root().Writer
	if cmd.copyText {
		_, err = fmt.Fprintln(out, result.CopyText())
		return err
	}

	md := result.Markdown()
	if cmd.raw || !term.IsTerminal(int(os.Stdout.Fd())) {
		_, err = fmt.Fprint(out, md)
		return err
	}

	rendered, err := renderMarkdown(md, cmd.app.Config.Display.MarkdownStyle)
	if err != nil {
		cmd.app.Log.Warn().Err(err).Msg("markdown render failed")
		rendered = md
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func renderMarkdown(md, style string) (string, error) {
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = min(w, 120)
	}

	opt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		opt = glamour.WithStandardStyle(style)
	}

	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(md)
}
