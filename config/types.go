package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	CRM     CRMConfig     `mapstructure:"crm"`
	Keyring KeyringConfig `mapstructure:"keyring"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CRMConfig holds CRM API connection details
type CRMConfig struct {
	AuthToken   string        `mapstructure:"auth_token"`
	Scheme      string        `mapstructure:"scheme"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Environment string        `mapstructure:"environment"`
	Namespace   string        `mapstructure:"namespace"`
	Format      string        `mapstructure:"format"`
	Scope       string        `mapstructure:"scope"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Debug       bool          `mapstructure:"debug"`
}

// KeyringConfig selects where the auth token is stored
type KeyringConfig struct {
	Backend string `mapstructure:"backend"`
	FileDir string `mapstructure:"file_dir"`
}

// FilterConfig contains named record filter expressions
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// OutputConfig controls how records are rendered
type OutputConfig struct {
	Format string   `mapstructure:"format"`
	Fields []string `mapstructure:"fields"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
