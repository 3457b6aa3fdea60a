package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/prompt"
	"github.com/muurk/mfaentry/internal/ui"
	"github.com/muurk/mfaentry/internal/urls"
	"github.com/muurk/mfaentry/internal/verify"
)

// Command flags
var (
	noAutoSubmit bool
	prefillCode  string
	codeArg      string
	loginEmail   string
	printToken   bool
)

func init() {
	rootCmd.Flags().BoolVar(&noAutoSubmit, "no-auto-submit", false, "Wait for enter instead of verifying the last digit")
	rootCmd.Flags().StringVar(&prefillCode, "code", "", "Prefill the cells with this code")

	promptCmd.Flags().AddFlagSet(rootCmd.Flags())

	verifyCmd.Flags().StringVar(&codeArg, "code", "", "Code to verify (required)")
	_ = verifyCmd.MarkFlagRequired("code")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email address (required)")
	loginCmd.Flags().BoolVar(&noAutoSubmit, "no-auto-submit", false, "Wait for enter instead of verifying the last digit")
	loginCmd.Flags().BoolVar(&printToken, "print-token", false, "Print the access token to stdout after login")
	_ = loginCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(totpCmd)
}

// promptCmd opens the interactive code prompt
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Enter and verify an MFA code",
	Long: `Open the segmented code prompt and verify the entered code.

Digits move focus to the next cell, backspace on an empty cell clears the
previous one, and a paste anywhere fills the cells from the left. With
auto-submit on (the default) the code is verified as soon as the last cell
is filled.

A rejected code clears the cells and shows the reason under them. After the
configured number of attempts the prompt gives up.`,
	Example: `  # Verify against the configured auth API
  mfa-entry prompt --token "$ACCESS_TOKEN"

  # Verify offline against a TOTP secret
  mfa-entry prompt --secret JBSWY3DPEHPK3PXP

  # Eight-digit codes, submitted with enter
  mfa-entry prompt --length 8 --no-auto-submit`,
	RunE: runPrompt,
}

func runPrompt(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	verifier, details, err := s.newVerifier()
	if err != nil {
		return err
	}

	app, err := runCodePrompt(s, verifier, "MFA Verification", "mfa-entry prompt", details)
	if err != nil {
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout()).Println(app.Result().Render())
	if !app.Succeeded() {
		return errReported
	}
	return nil
}

// runCodePrompt runs the Bubble Tea prompt until it quits
func runCodePrompt(s *settings, verifier verify.Verifier, title, command string, details []ui.Detail) (prompt.AppModel, error) {
	app, err := prompt.NewAppModel(verifier, prompt.Options{
		Length:      s.Length,
		AutoSubmit:  s.AutoSubmit && !noAutoSubmit,
		AutoFocus:   s.AutoFocus,
		MaxAttempts: s.MaxAttempts,
		Timeout:     promptTimeout(s),
		Initial:     prefillCode,
		Title:       title,
		Command:     command,
		Params:      details,
	})
	if err != nil {
		return prompt.AppModel{}, err
	}

	p := tea.NewProgram(app, tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return prompt.AppModel{}, fmt.Errorf("prompt error: %w", err)
	}

	return final.(prompt.AppModel), nil
}

// promptTimeout bounds one verification including the client's retries
func promptTimeout(s *settings) time.Duration {
	attempts := s.Endpoint.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(attempts) * s.timeout() * 2
}

// verifyCmd verifies a code without the interactive prompt
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a code non-interactively",
	Long: `Verify a single code and exit with status 0 if it was accepted.

The code must have exactly --length digits. Useful for scripts and for
checking an endpoint or secret before using the prompt.`,
	Example: `  # Check a code against the auth API
  mfa-entry verify --code 123456 --endpoint https://auth.example.com --token "$ACCESS_TOKEN"

  # Check a code offline
  mfa-entry verify --code 123456 --secret JBSWY3DPEHPK3PXP`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if err := verify.ValidateCode(codeArg, s.Length); err != nil {
		return err
	}

	verifier, details, err := s.newVerifier()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), promptTimeout(s))
	defer cancel()

	printer := ui.NewPrinter(cmd.OutOrStdout())
	start := time.Now()
	if err := verifier.Verify(ctx, codeArg); err != nil {
		printer.PrintError("Verification failed", err, verify.Troubleshooting(err))
		return errReported
	}

	details = append(details, ui.Detail{Key: "Elapsed", Value: time.Since(start).Round(time.Millisecond).String()})
	printer.PrintSuccess("Code verified", details...)
	return nil
}

// loginCmd logs in with email, password and a code from the prompt
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with password and MFA code",
	Long: `Log in to the auth API with an email, a password and an MFA code.

The password is read from ` + PasswordEnvVar + ` or prompted without echo.
The code is entered in the segmented prompt. A wrong password and a wrong
code are reported the same way by the API, so both count as attempts.

On success the account is remembered in the config file. Tokens are never
written to disk; use --print-token to pass the access token to a script.`,
	Example: `  # Interactive login
  mfa-entry login --email ada@example.com --endpoint https://auth.example.com

  # Capture the access token
  TOKEN=$(mfa-entry login --email ada@example.com --print-token)`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	client, err := s.newClient()
	if err != nil {
		return err
	}

	password, err := readPassword(loginEmail)
	if err != nil {
		return err
	}

	verifier := &verify.LoginVerifier{
		Client:   client,
		Email:    loginEmail,
		Password: password,
	}
	details := []ui.Detail{
		{Key: "Account", Value: loginEmail},
		{Key: "Endpoint", Value: client.BaseURL + client.LoginPath},
	}

	app, err := runCodePrompt(s, verifier, "MFA Login", "mfa-entry login", details)
	if err != nil {
		return err
	}

	// Status goes to stderr when stdout carries the token
	out := cmd.OutOrStdout()
	if printToken {
		out = cmd.ErrOrStderr()
	}
	printer := ui.NewPrinter(out)

	if !app.Succeeded() {
		printer.Println(app.Result().Render())
		return errReported
	}

	token := verifier.Token()
	s.Registry.RecordLogin(loginEmail, client.BaseURL)
	if err := s.Registry.Save(); err != nil {
		logging.Warn("failed to record login", zap.Error(err))
	}

	printer.PrintSuccess("Logged in",
		ui.Detail{Key: "Account", Value: loginEmail},
		ui.Detail{Key: "Token type", Value: token.TokenType},
		ui.Detail{Key: "Attempts", Value: strconv.Itoa(app.Attempts)},
	)
	if token.PasswordChangeRequired {
		printer.PrintWarning("Password change required",
			ui.Detail{Key: "Account", Value: loginEmail},
		)
	}

	if printToken {
		fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
	}
	return nil
}

// readPassword returns the password from the environment or a hidden prompt
func readPassword(email string) (string, error) {
	if password := os.Getenv(PasswordEnvVar); password != "" {
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for a password; set %s", PasswordEnvVar)
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", email)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	password := strings.TrimRight(string(data), "\r\n")
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}

// enrollCmd sets up TOTP for the token's user and confirms the first code
var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Set up an authenticator app for your account",
	Long: `Enroll the authenticated user in TOTP MFA.

The auth API generates a new secret, which is printed together with an
otpauth:// URI for authenticator apps. Add it to your app, then enter the
code it shows; MFA is activated once the code is accepted.`,
	Example: `  mfa-entry enroll --endpoint https://auth.example.com --token "$ACCESS_TOKEN"`,
	RunE:    runEnroll,
}

func runEnroll(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	client, err := s.newClient()
	if err != nil {
		return err
	}
	if client.Token == "" {
		return fmt.Errorf("an access token is required (use --token or %s)", TokenEnvVar)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), promptTimeout(s))
	defer cancel()

	printer := ui.NewPrinter(cmd.OutOrStdout())

	setup, err := client.Setup(ctx)
	if err != nil {
		printer.PrintError("MFA setup failed", err, verify.Troubleshooting(err))
		return errReported
	}

	printer.PrintWarning("Add this secret to your authenticator app",
		ui.Detail{Key: "Secret", Value: setup.Secret},
		ui.Detail{Key: "URI", Value: setup.QRCodeURI},
		ui.Detail{Key: "Guide", Value: urls.AuthenticatorSetupGuide},
	)

	details := []ui.Detail{{Key: "Endpoint", Value: client.BaseURL + client.ActivatePath}}
	app, err := runCodePrompt(s, client, "Activate MFA", "mfa-entry enroll", details)
	if err != nil {
		return err
	}

	if !app.Succeeded() {
		printer.Println(app.Result().Render())
		return errReported
	}

	printer.PrintSuccess("MFA activated",
		ui.Detail{Key: "Attempts", Value: strconv.Itoa(app.Attempts)},
	)
	return nil
}

// totpCmd prints the current code for a secret
var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Print the current code for a TOTP secret",
	Long: `Print the code an authenticator app would currently show for --secret.

Intended for testing endpoints and the prompt; keep real secrets out of
shell history.`,
	Example: `  mfa-entry totp --secret JBSWY3DPEHPK3PXP
  mfa-entry totp --secret JBSWY3DPEHPK3PXP --length 8`,
	RunE: runTOTP,
}

func runTOTP(cmd *cobra.Command, args []string) error {
	if totpSecret == "" {
		return errors.New("--secret is required")
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	totp, err := verify.NewTOTP(totpSecret, s.Length)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (valid for %s)\n", totp.Code(), totp.Remaining())
	return nil
}
