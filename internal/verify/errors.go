package verify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates the bearer token or credentials were refused
	ErrTypeAuth
	// ErrTypeRejected indicates the backend rejected the code itself
	ErrTypeRejected
	// ErrTypeHTTP indicates any other non-2xx response
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeValidation indicates invalid input caught before any request
	ErrTypeValidation
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the endpoint refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeCanceled indicates the caller canceled the request
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeRejected:
		return "Code Rejected"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// VerifyError represents a failed verification or auth API call
type VerifyError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Endpoint   string    // Endpoint URL (for context)
	Retryable  bool      // Whether the client may resend the request
}

// Error implements the error interface
func (e *VerifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *VerifyError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a categorized
// VerifyError
func ClassifyNetworkError(err error, endpoint string) *VerifyError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &VerifyError{
			Type:     ErrTypeCanceled,
			Message:  "Request canceled",
			Err:      err,
			Endpoint: endpoint,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &VerifyError{
			Type:      ErrTypeTimeout,
			Message:   "Request timed out",
			Err:       err,
			Endpoint:  endpoint,
			Retryable: true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &VerifyError{
			Type:     ErrTypeDNS,
			Message:  fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:      err,
			Endpoint: endpoint,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &VerifyError{
			Type:      ErrTypeConnectionRefused,
			Message:   "Endpoint refused connection",
			Err:       err,
			Endpoint:  endpoint,
			Retryable: true,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &VerifyError{
		Type:      ErrTypeNetwork,
		Message:   "Network error occurred",
		Err:       err,
		Endpoint:  endpoint,
		Retryable: true,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *VerifyError {
	classified := ClassifyNetworkError(err, "")
	if classified == nil {
		return &VerifyError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	classified.Message = message
	return classified
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *VerifyError {
	return &VerifyError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewRejectedError creates an error for a code the backend refused
func NewRejectedError(message string) *VerifyError {
	return &VerifyError{
		Type:       ErrTypeRejected,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewHTTPError creates an HTTP-level error. Server errors are retryable.
func NewHTTPError(statusCode int, message string) *VerifyError {
	return &VerifyError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *VerifyError {
	return &VerifyError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *VerifyError {
	return &VerifyError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

func errorType(err error) (ErrorType, bool) {
	var vErr *VerifyError
	if errors.As(err, &vErr) {
		return vErr.Type, true
	}
	return 0, false
}

func isType(err error, types ...ErrorType) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// IsNetworkError checks if an error is a network error (including timeout,
// connection refused and DNS)
func IsNetworkError(err error) bool {
	return isType(err, ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS)
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	return isType(err, ErrTypeAuth)
}

// IsRejected checks if the backend rejected the code
func IsRejected(err error) bool {
	return isType(err, ErrTypeRejected)
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	return isType(err, ErrTypeHTTP)
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	return isType(err, ErrTypeParse)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrTypeValidation)
}

// IsCanceled checks if the request was canceled by the caller
func IsCanceled(err error) bool {
	return isType(err, ErrTypeCanceled)
}

// IsRetryable checks if the client may resend the request
func IsRetryable(err error) bool {
	var vErr *VerifyError
	if errors.As(err, &vErr) {
		return vErr.Retryable
	}
	return false
}

// IsRecoverable reports whether asking the user for another code can help.
// Bad credentials, bad responses and cancellation end the prompt; rejected
// codes and transient failures do not.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	if _, ok := errorType(err); !ok {
		return false
	}
	return !isType(err, ErrTypeAuth, ErrTypeParse, ErrTypeValidation, ErrTypeCanceled, ErrTypeDNS)
}

// UserMessage returns a short message suitable for display under the code
// cells
func UserMessage(err error) string {
	var vErr *VerifyError
	if !errors.As(err, &vErr) {
		return err.Error()
	}

	switch vErr.Type {
	case ErrTypeRejected:
		if vErr.Message != "" {
			return vErr.Message
		}
		return "Invalid code"
	case ErrTypeAuth:
		return "Not authorized - check your token or credentials"
	case ErrTypeTimeout:
		return "Verification service not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Verification service refused connection"
	case ErrTypeDNS:
		return "Cannot resolve verification service hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		if vErr.StatusCode == http.StatusTooManyRequests {
			return "Too many attempts - wait before trying again"
		}
		return fmt.Sprintf("Verification service error (HTTP %d)", vErr.StatusCode)
	case ErrTypeParse:
		return "Unexpected response from verification service"
	case ErrTypeCanceled:
		return "Verification canceled"
	default:
		return vErr.Message
	}
}

// Troubleshooting returns hints for a failure box
func Troubleshooting(err error) []string {
	var vErr *VerifyError
	if !errors.As(err, &vErr) {
		return nil
	}

	switch vErr.Type {
	case ErrTypeRejected:
		return []string{
			"Codes change every 30 seconds; enter the one currently shown",
			"Check that this machine's clock is correct",
			"Make sure the authenticator entry matches this account",
		}
	case ErrTypeAuth:
		return []string{
			"Access tokens expire; log in again to get a fresh one",
			"Pass the token with --token or MFAENTRY_TOKEN",
		}
	case ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeNetwork:
		return []string{
			"Check the endpoint URL with 'mfa-entry config show'",
			"Verify the auth service is running and reachable",
			"Try increasing the timeout with --timeout",
		}
	case ErrTypeDNS:
		return []string{
			"Check the endpoint hostname for typos",
			"Check your network DNS settings",
		}
	case ErrTypeHTTP:
		if vErr.StatusCode >= 500 {
			return []string{
				"The auth service reported an internal error",
				"Try again in a few moments",
			}
		}
		return []string{"Check the endpoint paths in the config file"}
	case ErrTypeParse:
		return []string{"The endpoint may not be an auth API; check the base URL"}
	default:
		return nil
	}
}
