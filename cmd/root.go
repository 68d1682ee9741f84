package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/zcrm/config"
	"github.com/s0up4200/zcrm/crm"
	"github.com/s0up4200/zcrm/output"
)

var (
	cfgFile   string
	cfg       *config.Config
	logger    zerolog.Logger
	client    crm.API
	formatter output.RecordFormatter = output.NewConsoleFormatter()

	// Global flags
	authToken    string
	debug        bool
	outputFormat string
	jqQuery      string
	fields       []string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "zcrm",
	Short: "A command line client for the Zoho CRM record API",
	Long: `zcrm reads and writes records of a Zoho CRM account: fetch records by id,
walk related records, search with criteria and insert new rows.

The auth token is taken from --token, ZCRM_AUTH_TOKEN, the config file or the
system keyring (see "zcrm auth set-token").`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.zcrm/config.yaml)")
	flags.StringVar(&authToken, "token", "", "CRM auth token (overrides config and keyring)")
	flags.BoolVar(&debug, "debug", false, "log every request URL with the token redacted")
	flags.StringVarP(&outputFormat, "output", "o", "", "output format: console or json")
	flags.StringVar(&jqQuery, "jq", "", "jq query applied to JSON output")
	flags.StringSliceVar(&fields, "fields", nil, "fields to display, in order")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// loadConfig loads the configuration and sets up logging
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("debug") {
		cfg.CRM.Debug = debug
	}
	if outputFormat != "" {
		if outputFormat != "console" && outputFormat != "json" {
			return fmt.Errorf("invalid output format: %s (must be 'console' or 'json')", outputFormat)
		}
		cfg.Output.Format = outputFormat
	}
	if len(fields) > 0 {
		cfg.Output.Fields = fields
	}
	if jqQuery != "" {
		cfg.Output.Format = "json"
	}

	logger = setupLogger(cfg.Logging)
	return nil
}

// initializeClient creates the CRM client; commands that talk to the API use it as PreRunE
func initializeClient(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	client = c
	return nil
}

// newClient resolves the auth token and builds a client from the loaded config
func newClient() (*crm.Client, error) {
	explicit := authToken
	if explicit == "" {
		explicit = cfg.CRM.AuthToken
	}

	var store *config.CredentialStore
	if explicit == "" {
		var err error
		store, err = openStore(cfg.Keyring)
		if err != nil {
			logger.Debug().Err(err).Msg("Keyring unavailable")
		}
	}

	token, err := config.ResolveToken(explicit, store)
	if err != nil {
		return nil, fmt.Errorf("no auth token configured (set ZCRM_AUTH_TOKEN or run 'zcrm auth set-token'): %w", err)
	}

	c, err := crm.New(token, logger, cfg.CRM.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CRM client: %w", err)
	}

	logger.Debug().
		Str("endpoint", cfg.CRM.Endpoint().String()).
		Str("scope", cfg.CRM.Scope).
		Msg("CRM client ready")

	return c, nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(os.Stderr),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
