package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/nhle/ops-board/internal/model"
)

type ConfigCmd struct {
	flags *Flags
	app   *App

	// flags
	force bool
}

// NewConfigCmd creates a new config command
func NewConfigCmd(flags *Flags, app *App) *ConfigCmd {
	return &ConfigCmd{flags: flags, app: app}
}

// Register adds the config command to the application
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Inspect and manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: cmd.runShow,
			},
			{
				Name:   "validate",
				Usage:  "Check the configuration for errors",
				Action: cmd.runValidate,
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "force",
						Usage:       "overwrite an existing file",
						Destination: &cmd.force,
					},
				},
				Action: cmd.runInit,
			},
		},
	})
	return app
}

func (cmd *ConfigCmd) runShow(_ context.Context, c *cli.Command) error {
	cfg, err := model.LoadConfig(cmd.flags.ConfigPath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "# %s\n", cmd.flags.ConfigPath)
	_, err = out.Write(data)
	return err
}

func (cmd *ConfigCmd) runValidate(_ context.Context, c *cli.Command) error {
	cfg, err := model.LoadConfig(cmd.flags.ConfigPath)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s:\n%w", cmd.flags.ConfigPath, err)
	}

	_, err = fmt.Fprintf(c.Root().Writer, "%s is valid\n", cmd.flags.ConfigPath)
	return err
}

func (cmd *ConfigCmd) runInit(_ context.Context, c *cli.Command) error {
	path := cmd.flags.ConfigPath

	if _, err := os.Stat(path); err == nil && !cmd.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := model.SaveConfig(path, model.DefaultAppConfig()); err != nil {
		return err
	}

	_, err := fmt.Fprintf(c.Root().Writer, "Wrote %s\n", path)
	return err
}
