package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/ops-board/internal/ai"
	"github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/credential"
	"github.com/nhle/ops-board/internal/intake"
	"github.com/nhle/ops-board/internal/model"
	"github.com/nhle/ops-board/internal/store"
)

// App holds the services shared by all commands. main allocates it before
// the commands are registered and fills it in the Before hook.
type App struct {
	Config   *model.AppConfig
	Log      zerolog.Logger
	Board    *board.Board
	Client   *ai.Client
	Analyzer *ai.Analyzer
	Keys     credential.KeySource
	Version  string

	closeStore func() error
}

// OpenApp loads the config, opens the store and wires the board and the
// model client.
func OpenApp(ctx context.Context, flags *Flags, log zerolog.Logger) (*App, error) {
	cfg, err := model.LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var (
		kv         store.KV
		closeStore = func() error { return nil }
	)
	if flags.Ephemeral {
		kv = store.NewMemoryStore()
	} else {
		path := flags.DatabasePath(cfg.Storage.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		sqlite, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		kv = sqlite
		closeStore = sqlite.Close
	}

	b, err := board.Open(ctx, kv,
		board.WithLogger(log),
		board.WithDefaultModel(cfg.AI.Model),
	)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("open board: %w", err)
	}

	keys := credential.DefaultKeySource()
	client := ai.NewClient(cfg.AI, keys.APIKey, ai.WithLogger(log))

	return &App{
		Config:     cfg,
		Log:        log,
		Board:      b,
		Client:     client,
		Analyzer:   ai.NewAnalyzer(client, b.Model),
		Keys:       keys,
		closeStore: closeStore,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

// NewPoller builds the mail intake poller from the config. It returns nil
// when intake is disabled.
func (a *App) NewPoller() *intake.Poller {
	cfg := a.Config.Intake
	if !cfg.Enabled {
		return nil
	}

	mailbox := intake.NewMailbox(cfg, imapPassword)
	interval := time.Duration(cfg.PollIntervalSec) * time.Second
	return intake.NewPoller(mailbox, a.Analyzer, a.Board, interval, a.Log)
}

// imapPassword prefers OPSBOARD_IMAP_PASSWORD over the keyring.
func imapPassword() (string, error) {
	if pw := os.Getenv("OPSBOARD_IMAP_PASSWORD"); pw != "" {
		return pw, nil
	}
	pw, err := credential.Get(credential.IMAPPassword)
	if err != nil {
		if credential.IsNotFound(err) {
			return "", fmt.Errorf("no IMAP password stored; run 'opsboard key set --name imap'")
		}
		return "", err
	}
	return pw, nil
}
