package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const (
	serviceName = "zcrm"
	tokenKey    = "auth_token"

	envKeyringPassword = "ZCRM_KEYRING_PASSWORD"
)

// ErrNoStoredToken indicates the keyring holds no auth token
var ErrNoStoredToken = errors.New("no auth token stored in keyring")

// openKeyring can be replaced in tests
var openKeyring = keyring.Open

// CredentialStore persists the CRM auth token in the OS keyring
type CredentialStore struct {
	ring keyring.Keyring
}

// NewCredentialStore wraps an already opened keyring
func NewCredentialStore(ring keyring.Keyring) *CredentialStore {
	return &CredentialStore{ring: ring}
}

// OpenCredentialStore opens the keyring backend selected in cfg
func OpenCredentialStore(cfg KeyringConfig) (*CredentialStore, error) {
	kcfg := keyring.Config{
		ServiceName: serviceName,
	}

	switch cfg.Backend {
	case "file":
		dir := cfg.FileDir
		if dir == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve keyring directory: %w", err)
			}
			dir = filepath.Join(configDir, serviceName, "keyring")
		}
		kcfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		kcfg.FileDir = dir
		if pw := os.Getenv(envKeyringPassword); pw != "" {
			kcfg.FilePasswordFunc = keyring.FixedStringPrompt(pw)
		} else {
			kcfg.FilePasswordFunc = keyring.TerminalPrompt
		}
	case "system":
		kcfg.AllowedBackends = systemBackends()
	}

	ring, err := openKeyring(kcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewCredentialStore(ring), nil
}

// systemBackends lists the OS-native keyring backends
func systemBackends() []keyring.BackendType {
	var out []keyring.BackendType
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			out = append(out, b)
		}
	}
	return out
}

// Token returns the stored auth token
func (s *CredentialStore) Token() (string, error) {
	item, err := s.ring.Get(tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNoStoredToken
		}
		return "", fmt.Errorf("failed to read auth token: %w", err)
	}
	if len(item.Data) == 0 {
		return "", ErrNoStoredToken
	}
	return string(item.Data), nil
}

// SetToken stores the auth token
func (s *CredentialStore) SetToken(token string) error {
	if token == "" {
		return fmt.Errorf("auth token must not be empty")
	}
	if err := s.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "zcrm auth token",
	}); err != nil {
		return fmt.Errorf("failed to store auth token: %w", err)
	}
	return nil
}

// DeleteToken removes the stored auth token; a missing token is not an error
func (s *CredentialStore) DeleteToken() error {
	if err := s.ring.Remove(tokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove auth token: %w", err)
	}
	return nil
}

// ResolveToken picks the auth token: explicit value first, then the keyring
func ResolveToken(explicit string, store *CredentialStore) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if store == nil {
		return "", ErrNoStoredToken
	}
	return store.Token()
}
