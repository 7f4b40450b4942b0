package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/nhle/ops-board/internal/server"
)

type ServeCmd struct {
	flags *Flags
	app   *App

	// flags
	addr       string
	withIntake bool
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the board over HTTP",
		UsageText: "opsboard serve [--addr HOST:PORT] [--intake]",
		Description: `Serves the JSON API under /api and the model proxy at /api/ops-plan.
The proxy uses the server's API key so browsers never see it.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to server.addr from the config)",
				Sources:     cli.EnvVars("OPSBOARD_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.BoolFlag{
				Name:        "intake",
				Usage:       "poll the configured mailbox in the background",
				Destination: &cmd.withIntake,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := cmd.app.Config
	addr := cmd.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	opts := []server.Option{
		server.WithAnalyzer(cmd.app.Analyzer),
		server.WithProxy(cmd.app.Client, cfg.Server.ProxyModel),
		server.WithLogger(cmd.app.Log),
	}

	if cmd.withIntake {
		if poller := cmd.app.NewPoller(); poller != nil {
			go poller.Run(ctx)
			opts = append(opts, server.WithIntake(poller))
		} else {
			cmd.app.Log.Warn().Msg("--intake given but intake is disabled in the config")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cmd.app.Board, opts...)

	if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
