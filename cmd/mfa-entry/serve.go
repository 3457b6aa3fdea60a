package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/mfaentry/internal/devserver"
	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/ui"
)

// Serve command flags
var (
	serveHost           string
	servePort           int
	serveEmail          string
	serveTLS            bool
	certPath            string
	keyPath             string
	serveLogLevel       string
	servePasswordChange bool
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Address to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", devserver.DefaultPort, "Port to listen on (0 picks a free port)")
	serveCmd.Flags().StringVar(&serveEmail, "email", "", "Email of the account to serve (required)")
	serveCmd.Flags().BoolVar(&serveTLS, "tls", false, "Serve HTTPS with a self-signed in-memory certificate")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&servePasswordChange, "password-change-required", false, "Report a required password change on login")
	_ = serveCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(serveCmd)
}

// serveCmd runs the development auth API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local auth API for trying the prompt",
	Long: `Run a development stand-in for the auth API's login and MFA endpoints.

The server holds one account in memory. Its password is read from
` + PasswordEnvVar + ` or prompted without echo. With --secret, MFA is
already active for that secret; without it, MFA starts disabled and a
bootstrap access token is printed so "mfa-entry enroll" can set it up.

Nothing is persisted; restarting the server resets the account.`,
	Example: `  # Serve an account that already has MFA
  mfa-entry serve --email ada@example.com --secret JBSWY3DPEHPK3PXP

  # Then, in another terminal
  mfa-entry login --email ada@example.com --endpoint http://127.0.0.1:8700

  # Start without MFA, then enroll with the printed bootstrap token
  mfa-entry serve --email ada@example.com
  mfa-entry enroll --endpoint http://127.0.0.1:8700 --token <bootstrap token>

  # Serve HTTPS with a self-signed certificate
  mfa-entry serve --email ada@example.com --tls --port 8443`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if (certPath != "") != (keyPath != "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}
	if certPath != "" && serveTLS {
		return fmt.Errorf("--tls cannot be combined with --cert and --key")
	}
	if certPath != "" {
		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", certPath)
		}
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", keyPath)
		}
	}

	if err := logging.Initialize(serveLogLevel); err != nil {
		return err
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	password, err := readPassword(serveEmail)
	if err != nil {
		return err
	}

	srv, err := devserver.New(&devserver.Config{
		Host:                   serveHost,
		Port:                   servePort,
		Email:                  serveEmail,
		Password:               password,
		Secret:                 s.Secret,
		Digits:                 s.Length,
		PasswordChangeRequired: servePasswordChange,
		CertPath:               certPath,
		KeyPath:                keyPath,
		GenerateCert:           serveTLS,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Listen(); err != nil {
		return err
	}

	details := []ui.Detail{
		{Key: "Endpoint", Value: srv.URL()},
		{Key: "Account", Value: serveEmail},
		{Key: "Digits", Value: strconv.Itoa(s.Length)},
		{Key: "MFA", Value: strconv.FormatBool(srv.MFAEnabled())},
	}
	if !srv.MFAEnabled() {
		details = append(details, ui.Detail{Key: "Bootstrap token", Value: srv.IssueToken()})
	}
	ui.NewPrinter(cmd.ErrOrStderr()).PrintSuccess("Development auth API running", details...)

	return srv.Serve(cmd.Context())
}
