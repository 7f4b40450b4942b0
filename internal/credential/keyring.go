// Package credential keeps secrets in the operating system keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "opsboard"

// Keys of the stored secrets.
const (
	GeminiAPIKey = "gemini-api-key"
	IMAPPassword = "imap-password"
)

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = keyring.ErrKeyNotFound

// Store reads and writes secrets. The package-level functions use the
// system keyring; tests pass their own.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type systemStore struct{}

// System returns the Store backed by the system keyring.
func System() Store { return systemStore{} }

func (systemStore) Get(key string) (string, error) { return Get(key) }
func (systemStore) Set(key, value string) error    { return Set(key, value) }
func (systemStore) Delete(key string) error        { return Delete(key) }

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/opsboard/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("opsboard-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "opsboard " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// KeySource resolves the Gemini API key.
type KeySource struct {
	Getenv func(string) string
	Store  Store
}

// DefaultKeySource reads the process environment and the system keyring.
func DefaultKeySource() KeySource {
	return KeySource{Getenv: os.Getenv, Store: System()}
}

// APIKey returns GEMINI_API_KEY, then API_KEY, then the stored key. It
// returns "" when none is set.
func (k KeySource) APIKey() string {
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(k.Getenv(name)); v != "" {
			return v
		}
	}
	if k.Store == nil {
		return ""
	}
	v, err := k.Store.Get(GeminiAPIKey)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// LookupAPIKey resolves the API key from the environment and system keyring.
func LookupAPIKey() string {
	return DefaultKeySource().APIKey()
}

// IsNotFound reports whether err means the key is not stored.
func IsNotFound(err error) bool {
	return errors.Is(err, keyring.ErrKeyNotFound)
}
