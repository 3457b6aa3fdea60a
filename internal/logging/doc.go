// Package logging provides structured logging for mfa-entry.
//
// This package wraps a zap logger with convenience functions, plus a few
// domain helpers for code entry and verification events.
//
// # Silent By Default
//
// mfa-entry is an interactive terminal program, so logging is disabled
// unless MFAENTRY_LOG_LEVEL is set. Output goes to stderr (or to the file
// named by MFAENTRY_LOG_FILE) so it never mixes with the rendered prompt:
//
//	MFAENTRY_LOG_LEVEL=debug MFAENTRY_LOG_FILE=/tmp/mfa.log mfa-entry
//
// # Structured Logging
//
//	logging.Info("Verification succeeded",
//	    zap.String("endpoint", "https://auth.example.com"),
//	    zap.Int("attempt", 2),
//	)
//
// # Secrets
//
// The code itself, bearer tokens, passwords and TOTP secrets are never
// logged. LogCodeEvent records only the code length and focused cell.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize should be
// called once at startup, before any goroutines log.
package logging
