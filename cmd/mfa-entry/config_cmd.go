package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/mfaentry/internal/config"
	"github.com/muurk/mfaentry/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change saved preferences",
	Long: `Show or change the preferences saved in the config file.

Access tokens, passwords and TOTP secrets are never stored.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the config file contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		data, err := registry.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:       "get KEY",
	Short:     "Print one preference",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		value, err := registry.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one preference",
	Long: `Change one preference and save the config file.

Valid keys:
  ` + strings.Join(config.Keys(), "\n  "),
	Example: `  mfa-entry config set endpoint.base_url https://auth.example.com
  mfa-entry config set code_length 8
  mfa-entry config set auto_submit false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := registry.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := registry.Save(); err != nil {
			return err
		}

		value, _ := registry.Get(args[0])
		path, _ := config.GetConfigPath()
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Preference saved",
			ui.Detail{Key: "Key", Value: args[0]},
			ui.Detail{Key: "Value", Value: value},
			ui.Detail{Key: "File", Value: path},
		)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
