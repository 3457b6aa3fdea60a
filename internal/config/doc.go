// Package config provides user configuration management for mfa-entry.
//
// This package manages a YAML-based configuration file that stores the code
// prompt's preferences, the verification endpoint and a small record of the
// accounts that have completed a login. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/mfa-entry/config.yaml or $HOME/.config/mfa-entry/config.yaml
//   - macOS: $HOME/.config/mfa-entry/config.yaml
//   - Windows: %LOCALAPPDATA%\mfa-entry\config.yaml
//
// # Security
//
// IMPORTANT: This package NEVER stores secrets such as access tokens, passwords
// or TOTP shared secrets. Tokens come from flags or the environment, passwords
// are prompted, and TOTP secrets are only ever passed on the command line.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Change a preference by its dotted key
//	if err := registry.Set("code_length", "8"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Remember an account after a successful login
//	registry.RecordLogin("ada@example.com", registry.Preferences.Endpoint.BaseURL)
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
