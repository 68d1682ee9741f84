package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/s0up4200/zcrm/crm"
	"github.com/s0up4200/zcrm/filter"
)

// EnvDevelopment switches the endpoint scheme to plain http
const EnvDevelopment = "development"

// Load loads the configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".zcrm"))
		}

		// Check /etc
		v.AddConfigPath("/etc/zcrm/")
	}

	// Read config file; running from environment alone is fine
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// CRM defaults
	v.SetDefault("crm.auth_token", "")
	v.SetDefault("crm.scheme", crm.DefaultScheme)
	v.SetDefault("crm.host", crm.DefaultHost)
	v.SetDefault("crm.port", 0)
	v.SetDefault("crm.environment", "production")
	v.SetDefault("crm.namespace", crm.DefaultNamespace)
	v.SetDefault("crm.format", crm.DefaultFormat)
	v.SetDefault("crm.scope", crm.DefaultScope)
	v.SetDefault("crm.timeout", crm.DefaultTimeout)
	v.SetDefault("crm.debug", false)

	// Keyring defaults
	v.SetDefault("keyring.backend", "auto")

	// Output defaults
	v.SetDefault("output.format", "console")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// bindEnv maps the environment variables host selection has always honoured
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("ZCRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("crm.auth_token", "ZCRM_AUTH_TOKEN")
	_ = v.BindEnv("crm.host", "ZCRM_HOST")
	_ = v.BindEnv("crm.port", "ZCRM_PORT")
	_ = v.BindEnv("crm.environment", "ZCRM_ENV")
	_ = v.BindEnv("crm.debug", "ZCRM_DEBUG")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	validSchemes := map[string]bool{
		"http":  true,
		"https": true,
	}
	if !validSchemes[cfg.CRM.Scheme] {
		return fmt.Errorf("invalid crm.scheme: %s", cfg.CRM.Scheme)
	}

	if cfg.CRM.Host == "" {
		return fmt.Errorf("crm.host is required")
	}

	if cfg.CRM.Port < 0 || cfg.CRM.Port > 65535 {
		return fmt.Errorf("invalid crm.port: %d", cfg.CRM.Port)
	}

	if cfg.CRM.Timeout <= 0 {
		return fmt.Errorf("crm.timeout must be positive")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	if !validFormats[cfg.Output.Format] {
		return fmt.Errorf("invalid output format: %s", cfg.Output.Format)
	}

	validBackends := map[string]bool{
		"auto":   true,
		"system": true,
		"file":   true,
	}
	if !validBackends[cfg.Keyring.Backend] {
		return fmt.Errorf("invalid keyring.backend: %s (must be 'auto', 'system' or 'file')", cfg.Keyring.Backend)
	}

	// Validate filter presets
	if err := filter.NewManager().RegisterFilters(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	return nil
}

// Endpoint resolves the base URL requests are sent to. The development
// environment always talks plain http.
func (c CRMConfig) Endpoint() crm.Endpoint {
	scheme := c.Scheme
	if strings.EqualFold(c.Environment, EnvDevelopment) {
		scheme = "http"
	}
	return crm.Endpoint{
		Scheme: scheme,
		Host:   c.Host,
		Port:   c.Port,
	}
}

// ClientOptions translates the CRM settings into client options
func (c CRMConfig) ClientOptions() []crm.Option {
	return []crm.Option{
		crm.WithEndpoint(c.Endpoint()),
		crm.WithNamespace(c.Namespace),
		crm.WithFormat(c.Format),
		crm.WithScope(c.Scope),
		crm.WithTimeout(c.Timeout),
		crm.WithDebug(c.Debug),
	}
}
