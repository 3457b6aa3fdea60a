// Package urls provides centralized constants for the auth API paths and
// documentation links used throughout the application.
//
// Paths are relative to the configured endpoint base URL and can be
// overridden in the config file; the constants here are the defaults.
//
// Usage:
//
//	import "github.com/muurk/mfaentry/internal/urls"
//
//	endpoint := baseURL + urls.MFAActivatePath
package urls
