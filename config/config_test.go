package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/zcrm/crm"
)

func validConfig() *Config {
	return &Config{
		CRM: CRMConfig{
			Scheme:  "https",
			Host:    crm.DefaultHost,
			Timeout: 30 * time.Second,
		},
		Keyring: KeyringConfig{Backend: "auto"},
		Output:  OutputConfig{Format: "console"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "invalid scheme",
			mutate:  func(c *Config) { c.CRM.Scheme = "ftp" },
			wantErr: "invalid crm.scheme: ftp",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.CRM.Host = "" },
			wantErr: "crm.host is required",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.CRM.Port = 70000 },
			wantErr: "invalid crm.port",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.CRM.Timeout = 0 },
			wantErr: "crm.timeout must be positive",
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "invalid logging level: trace",
		},
		{
			name:    "invalid output format",
			mutate:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "invalid output format: xml",
		},
		{
			name:    "invalid keyring backend",
			mutate:  func(c *Config) { c.Keyring.Backend = "vault" },
			wantErr: "invalid keyring.backend: vault",
		},
		{
			name: "valid preset",
			mutate: func(c *Config) {
				c.Filter.Presets = map[string]string{"smiths": `field("Last Name") == "Smith"`}
			},
		},
		{
			name: "broken preset",
			mutate: func(c *Config) {
				c.Filter.Presets = map[string]string{"broken": `field("Last Name" ==`}
			},
			wantErr: "failed to compile filter 'broken'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
crm:
  auth_token: from-file
  host: crm.example.test
  timeout: 10s
filter:
  presets:
    smiths: 'field("Last Name") == "Smith"'
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.CRM.AuthToken)
	assert.Equal(t, "crm.example.test", cfg.CRM.Host)
	assert.Equal(t, 10*time.Second, cfg.CRM.Timeout)
	assert.Equal(t, crm.DefaultScope, cfg.CRM.Scope)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Output.Format)
	assert.Contains(t, cfg.Filter.Presets, "smiths")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crm:\n  host: crm.example.test\n"), 0o600))

	t.Setenv("ZCRM_AUTH_TOKEN", "from-env")
	t.Setenv("ZCRM_HOST", "localhost")
	t.Setenv("ZCRM_PORT", "8080")
	t.Setenv("ZCRM_ENV", "development")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.CRM.AuthToken)
	assert.Equal(t, crm.Endpoint{Scheme: "http", Host: "localhost", Port: 8080}, cfg.CRM.Endpoint())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config")
}

func TestEndpoint(t *testing.T) {
	prod := CRMConfig{Scheme: "https", Host: crm.DefaultHost, Environment: "production"}
	assert.Equal(t, crm.DefaultEndpoint(), prod.Endpoint())

	dev := CRMConfig{Scheme: "https", Host: "localhost", Port: 3000, Environment: "Development"}
	assert.Equal(t, "http://localhost:3000", dev.Endpoint().String())
}

func TestCredentialStore(t *testing.T) {
	store := NewCredentialStore(keyring.NewArrayKeyring(nil))

	_, err := store.Token()
	assert.ErrorIs(t, err, ErrNoStoredToken)

	require.Error(t, store.SetToken(""))
	require.NoError(t, store.SetToken("secret"))

	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	require.NoError(t, store.DeleteToken())
	_, err = store.Token()
	assert.ErrorIs(t, err, ErrNoStoredToken)
}

func TestResolveToken(t *testing.T) {
	store := NewCredentialStore(keyring.NewArrayKeyring([]keyring.Item{{Key: tokenKey, Data: []byte("stored")}}))

	token, err := ResolveToken("explicit", store)
	require.NoError(t, err)
	assert.Equal(t, "explicit", token)

	token, err = ResolveToken("", store)
	require.NoError(t, err)
	assert.Equal(t, "stored", token)

	_, err = ResolveToken("", nil)
	assert.ErrorIs(t, err, ErrNoStoredToken)
}

func TestOpenCredentialStoreFileBackend(t *testing.T) {
	var captured keyring.Config
	original := openKeyring
	openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
		captured = cfg
		return keyring.NewArrayKeyring(nil), nil
	}
	t.Cleanup(func() { openKeyring = original })

	t.Setenv(envKeyringPassword, "pw")
	dir := t.TempDir()

	store, err := OpenCredentialStore(KeyringConfig{Backend: "file", FileDir: dir})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, serviceName, captured.ServiceName)
	assert.Equal(t, []keyring.BackendType{keyring.FileBackend}, captured.AllowedBackends)
	assert.Equal(t, dir, captured.FileDir)

	pw, err := captured.FilePasswordFunc("prompt")
	require.NoError(t, err)
	assert.Equal(t, "pw", pw)
}
