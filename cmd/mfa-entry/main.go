// Mfa-entry is a terminal prompt for multi-factor authentication codes.
//
// It renders a row of single-digit cells, moves focus as digits are typed,
// distributes pasted codes across the cells and verifies the completed code
// against an auth API or, offline, against a TOTP secret.
//
// Usage:
//
//	mfa-entry [command] [flags]
//
// Running without arguments opens the code prompt.
// See 'mfa-entry --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/version"
)

// errReported marks failures that were already printed as a result box
var errReported = errors.New("failure already reported")

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mfa-entry",
	Short: "Segmented MFA code prompt",
	Long: `A terminal prompt for entering and verifying MFA codes.

Type digits one cell at a time, paste a whole code, or move between cells
with the arrow keys. Complete codes are verified against an auth API
(--endpoint with --token) or offline against a TOTP secret (--secret).

If no command is specified, the code prompt opens automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Silent unless MFAENTRY_LOG_LEVEL is set
		if err := logging.InitializeFromEnv(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: open the prompt when no subcommand provided
		return runPrompt(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mfa-entry %s\n", version.Full())
	},
}
