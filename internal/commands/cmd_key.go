package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/nhle/ops-board/internal/credential"
)

var keyNames = map[string]string{
	"gemini": credential.GeminiAPIKey,
	"imap":   credential.IMAPPassword,
}

type KeyCmd struct {
	flags *Flags
	app   *App

	// flags
	name string
}

// NewKeyCmd creates a new key command
func NewKeyCmd(flags *Flags, app *App) *KeyCmd {
	return &KeyCmd{flags: flags, app: app}
}

// Register adds the key command to the application
func (cmd *KeyCmd) Register(app *cli.Command) *cli.Command {
	nameFlag := &cli.StringFlag{
		Name:        "name",
		Usage:       "which secret (gemini, imap)",
		Value:       "gemini",
		Destination: &cmd.name,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "key",
		Usage: "Manage secrets in the system keyring",
		Description: `The Gemini API key can also come from GEMINI_API_KEY or API_KEY, which
take precedence over the keyring.`,
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store a secret (read from the terminal or stdin)",
				UsageText: "opsboard key set [--name gemini|imap]",
				Flags:     []cli.Flag{nameFlag},
				Action:    cmd.runSet,
			},
			{
				Name:      "delete",
				Usage:     "Remove a stored secret",
				UsageText: "opsboard key delete [--name gemini|imap]",
				Flags:     []cli.Flag{nameFlag},
				Action:    cmd.runDelete,
			},
			{
				Name:   "status",
				Usage:  "Report whether an API key is available",
				Action: cmd.runStatus,
			},
		},
	})
	return app
}

func (cmd *KeyCmd) key() (string, error) {
	k, ok := keyNames[cmd.name]
	if !ok {
		return "", fmt.Errorf("unknown secret %q (gemini or imap)", cmd.name)
	}
	return k, nil
}

func (cmd *KeyCmd) runSet(_ context.Context, c *cli.Command) error {
	k, err := cmd.key()
	if err != nil {
		return err
	}

	value, err := readSecret(fmt.Sprintf("Enter %s: ", cmd.name))
	if err != nil {
		return err
	}
	if value == "" {
		return errors.New("empty value, nothing stored")
	}

	if err := credential.Set(k, value); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Stored %s in the keyring\n", cmd.name)
	return nil
}

func (cmd *KeyCmd) runDelete(_ context.Context, c *cli.Command) error {
	k, err := cmd.key()
	if err != nil {
		return err
	}

	if err := credential.Delete(k); err != nil {
		if credential.IsNotFound(err) {
			_, _ = fmt.Fprintf(c.Root().Writer, "No %s stored\n", cmd.name)
			return nil
		}
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Deleted %s\n", cmd.name)
	return nil
}

func (cmd *KeyCmd) runStatus(_ context.Context, c *cli.Command) error {
	msg := "API key: not configured"
	if cmd.app.Keys.APIKey() != "" {
		msg = "API key: configured"
	}
	_, err := fmt.Fprintln(c.Root().Writer, msg)
	return err
}

// readSecret reads without echo from a terminal, or one line from piped
// stdin.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
