package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/zcrm/config"
)

// openStore can be replaced in tests
var openStore = config.OpenCredentialStore

// authCmd groups the credential commands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the auth token stored in the system keyring",
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token [token]",
	Short: "Store the auth token in the keyring (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthSetToken,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the auth token comes from",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored auth token",
	Args:  cobra.NoArgs,
	RunE:  runAuthClear,
}

func init() {
	authCmd.AddCommand(authSetTokenCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authClearCmd)
}

func runAuthSetToken(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		fmt.Fprint(cmd.ErrOrStderr(), "Auth token: ")
		var err error
		token, err = readLine(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("auth token must not be empty")
	}

	store, err := openStore(cfg.Keyring)
	if err != nil {
		return err
	}
	if err := store.SetToken(token); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Auth token stored")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	switch {
	case authToken != "":
		fmt.Fprintln(w, "Auth token: set via --token")
	case cfg.CRM.AuthToken != "":
		fmt.Fprintln(w, "Auth token: set via config or ZCRM_AUTH_TOKEN")
	default:
		store, err := openStore(cfg.Keyring)
		if err != nil {
			fmt.Fprintf(w, "Auth token: keyring unavailable (%v)\n", err)
			break
		}
		if _, err := store.Token(); err != nil {
			if errors.Is(err, config.ErrNoStoredToken) {
				fmt.Fprintln(w, "Auth token: not configured")
				break
			}
			return err
		}
		fmt.Fprintln(w, "Auth token: stored in keyring")
	}

	fmt.Fprintf(w, "Endpoint:   %s\n", cfg.CRM.Endpoint())
	fmt.Fprintf(w, "Scope:      %s\n", cfg.CRM.Scope)
	return nil
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg.Keyring)
	if err != nil {
		return err
	}
	if err := store.DeleteToken(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Auth token removed")
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read auth token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
