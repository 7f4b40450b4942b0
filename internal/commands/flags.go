package commands

import (
	"os"
	"path/filepath"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Ephemeral keeps the board in memory for the lifetime of the process.
	Ephemeral bool
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "opsboard")
}

// DatabasePath returns the SQLite file for the board. An explicit storage
// path in the config wins over the data directory.
func (f *Flags) DatabasePath(configured string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(f.DataDir, "opsboard.db")
}
