package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/mfaentry/internal/config"
	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/ui"
	"github.com/muurk/mfaentry/internal/verify"
)

const (
	// TokenEnvVar supplies the bearer token when --token is not given
	TokenEnvVar = "MFAENTRY_TOKEN"

	// PasswordEnvVar supplies the login password instead of a terminal prompt
	PasswordEnvVar = "MFAENTRY_PASSWORD"
)

// Shared command flags
var (
	endpointURL string
	accessToken string
	totpSecret  string
	codeLength  int
	timeoutSecs int
	retries     int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&endpointURL, "endpoint", "", "Auth API base URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&accessToken, "token", "", "Bearer access token (or "+TokenEnvVar+")")
	rootCmd.PersistentFlags().StringVar(&totpSecret, "secret", "", "Verify offline against this base32 TOTP secret")
	rootCmd.PersistentFlags().IntVar(&codeLength, "length", 0, "Number of digits in the code (default from config)")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "Request timeout in seconds (default from config)")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", -1, "Retries for network and server errors (default from config)")
}

// settings is the effective configuration: config file values overridden by
// flags and the environment
type settings struct {
	Registry    *config.Registry
	Length      int
	AutoFocus   bool
	AutoSubmit  bool
	MaxAttempts int
	Endpoint    config.Endpoint
	Token       string
	Secret      string
}

// loadSettings merges the config file with the command line
func loadSettings(cmd *cobra.Command) (*settings, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return resolveSettings(cmd, registry)
}

func resolveSettings(cmd *cobra.Command, registry *config.Registry) (*settings, error) {
	prefs := registry.Preferences

	s := &settings{
		Registry:    registry,
		Length:      prefs.CodeLength,
		AutoFocus:   prefs.AutoFocus,
		AutoSubmit:  prefs.AutoSubmit,
		MaxAttempts: prefs.MaxAttempts,
		Endpoint:    *prefs.Endpoint,
		Token:       os.Getenv(TokenEnvVar),
		Secret:      totpSecret,
	}

	flags := cmd.Flags()
	if flags.Changed("length") {
		s.Length = codeLength
	}
	if flags.Changed("endpoint") {
		s.Endpoint.BaseURL = endpointURL
	}
	if flags.Changed("timeout") {
		s.Endpoint.TimeoutSeconds = timeoutSecs
	}
	if flags.Changed("retries") {
		s.Endpoint.Retries = retries
	}
	if flags.Changed("token") {
		s.Token = accessToken
	}

	if err := verify.ValidateCodeLength(s.Length); err != nil {
		return nil, err
	}
	if s.Endpoint.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %d", s.Endpoint.TimeoutSeconds)
	}

	logging.Debug("settings resolved",
		zap.String("endpoint", s.Endpoint.BaseURL),
		zap.Int("length", s.Length),
		zap.Bool("offline", s.Secret != ""),
	)

	return s, nil
}

// timeout returns the per-request timeout
func (s *settings) timeout() time.Duration {
	return s.Endpoint.Timeout()
}

// newClient creates an auth API client from the endpoint settings
func (s *settings) newClient() (*verify.Client, error) {
	if err := verify.ValidateEndpoint(s.Endpoint.BaseURL); err != nil {
		return nil, fmt.Errorf("%w (set one with --endpoint or 'mfa-entry config set endpoint.base_url URL')", err)
	}

	client := verify.NewClient(s.Endpoint.BaseURL)
	client.ActivatePath = s.Endpoint.ActivatePath
	client.LoginPath = s.Endpoint.LoginPath
	client.SetupPath = s.Endpoint.SetupPath
	client.SetTimeout(s.timeout())
	client.MaxRetries = s.Endpoint.Retries
	client.SetToken(s.Token)
	return client, nil
}

// newVerifier picks the offline TOTP verifier when a secret is given and the
// auth API otherwise. The returned details describe it for headers.
func (s *settings) newVerifier() (verify.Verifier, []ui.Detail, error) {
	if s.Secret != "" {
		totp, err := verify.NewTOTP(s.Secret, s.Length)
		if err != nil {
			return nil, nil, err
		}
		return totp, []ui.Detail{
			{Key: "Mode", Value: "Offline TOTP"},
			{Key: "Digits", Value: strconv.Itoa(s.Length)},
		}, nil
	}

	client, err := s.newClient()
	if err != nil {
		return nil, nil, err
	}
	if client.Token == "" {
		return nil, nil, fmt.Errorf("an access token is required (use --token or %s), or pass --secret to verify offline", TokenEnvVar)
	}

	return client, []ui.Detail{
		{Key: "Endpoint", Value: client.BaseURL + client.ActivatePath},
		{Key: "Digits", Value: strconv.Itoa(s.Length)},
	}, nil
}
