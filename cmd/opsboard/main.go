package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/nhle/ops-board/internal/commands"
	"github.com/nhle/ops-board/internal/logutils"
	"github.com/nhle/ops-board/internal/model"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		opsApp    = &commands.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "opsboard",
		Usage:     "Rank, chase and resolve marketing-ops tasks",
		UsageText: "opsboard [global options] command [command options]",
		Description: `Opsboard turns pasted notes into tasks, scores them and splits them into
three views: Doer (ready to work), Manager (waiting on someone) and Planner
(needs thinking).

Run 'opsboard' with no arguments to open the interactive board.
Run 'opsboard analyze' to turn notes into tasks.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("OPSBOARD_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/opsboard.log)",
				Sources:     cli.EnvVars("OPSBOARD_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("OPSBOARD_CONFIG"),
				Value:       model.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("OPSBOARD_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.BoolFlag{
				Name:        "ephemeral",
				Usage:       "keep the board in memory only",
				Sources:     cli.EnvVars("OPSBOARD_EPHEMERAL"),
				Destination: &flags.Ephemeral,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file so the TUI and the MCP stdio stream stay clean
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "opsboard.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			opened, err := commands.OpenApp(ctx, flags, logger)
			if err != nil {
				return ctx, err
			}
			opened.Version = version

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*opsApp = *opened

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if err := opsApp.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close store")
				return err
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	boardCmd := commands.NewBoardCmd(flags, opsApp)

	app = boardCmd.Register(app)
	app = commands.NewViewsCmd(flags, opsApp).Register(app)
	app = commands.NewAnalyzeCmd(flags, opsApp).Register(app)
	app = commands.NewTaskCmd(flags, opsApp).Register(app)
	app = commands.NewResolveCmd(flags, opsApp).Register(app)
	app = commands.NewChaseCmd(flags, opsApp).Register(app)
	app = commands.NewDataCmd(flags, opsApp).Register(app)
	app = commands.NewModelCmd(flags, opsApp).Register(app)
	app = commands.NewKeyCmd(flags, opsApp).Register(app)
	app = commands.NewIntakeCmd(flags, opsApp).Register(app)
	app = commands.NewServeCmd(flags, opsApp).Register(app)
	app = commands.NewMcpCmd(flags, opsApp).Register(app)
	app = commands.NewConfigCmd(flags, opsApp).Register(app)

	// Register board flags on root command
	app.Flags = append(app.Flags, boardCmd.Flags()...)

	// Open the board when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'opsboard --help' for usage", c.Args().First())
		}
		return boardCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
