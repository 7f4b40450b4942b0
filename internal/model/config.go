package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultModel is the analysis model used until the user selects another.
const DefaultModel = "gemini-3-flash-preview"

// AIConfig holds settings for the analysis / resolve model provider.
type AIConfig struct {
	// BaseURL is the root of the generative language API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Model is the model used when the board has no stored selection.
	Model string `mapstructure:"model" yaml:"model"`

	// TimeoutSec bounds a single model call.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// StorageConfig controls where the board document is persisted.
type StorageConfig struct {
	// Path is the SQLite database file. Empty means <data-dir>/opsboard.db.
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`

	// ProxyModel is the model the ops-plan proxy falls back to when a
	// request does not name one.
	ProxyModel string `mapstructure:"proxy_model" yaml:"proxy_model"`
}

// IntakeConfig configures the mailbox that feeds new requests into analysis.
type IntakeConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
	Folder   string `mapstructure:"folder" yaml:"folder"`

	// SinceDays limits the search to messages received in the last N days.
	SinceDays int `mapstructure:"since_days" yaml:"since_days"`

	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// MarkdownStyle is the glamour style used for resolve output
	// ("auto", "dark", "light", "notty").
	MarkdownStyle string `mapstructure:"markdown_style" yaml:"markdown_style"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Intake  IntakeConfig  `mapstructure:"intake" yaml:"intake"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/opsboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "opsboard", "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		AI: AIConfig{
			BaseURL:    "https://generativelanguage.googleapis.com",
			Model:      DefaultModel,
			TimeoutSec: 60,
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8787",
			ProxyModel: "gemini-2.0-flash",
		},
		Intake: IntakeConfig{
			Port:            "993",
			TLS:             true,
			Folder:          "INBOX",
			SinceDays:       7,
			PollIntervalSec: 300,
		},
		Display: DisplayConfig{
			Theme:         "default",
			MarkdownStyle: "auto",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := DefaultAppConfig()
	v.SetDefault("ai.base_url", def.AI.BaseURL)
	v.SetDefault("ai.model", def.AI.Model)
	v.SetDefault("ai.timeout_sec", def.AI.TimeoutSec)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.proxy_model", def.Server.ProxyModel)
	v.SetDefault("intake.port", def.Intake.Port)
	v.SetDefault("intake.tls", def.Intake.TLS)
	v.SetDefault("intake.folder", def.Intake.Folder)
	v.SetDefault("intake.since_days", def.Intake.SinceDays)
	v.SetDefault("intake.poll_interval_sec", def.Intake.PollIntervalSec)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.markdown_style", def.Display.MarkdownStyle)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return def, nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("ai", cfg.AI)
	v.Set("storage", cfg.Storage)
	v.Set("server", cfg.Server)
	v.Set("intake", cfg.Intake)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
