package verify

import (
	"fmt"
	"net/url"

	"github.com/muurk/mfaentry/internal/segment"
)

// Code length bounds accepted by the prompt and the offline verifier
const (
	MinCodeLength = 4
	MaxCodeLength = 10
)

// ValidateCode checks that code is exactly length decimal digits.
func ValidateCode(code string, length int) error {
	if code == "" {
		return NewValidationError("code cannot be empty")
	}
	if !segment.IsDigits(code) {
		return NewValidationError("code must contain only digits")
	}
	if len(code) != length {
		return NewValidationError(fmt.Sprintf("code must be %d digits, got %d", length, len(code)))
	}
	return nil
}

// ValidateCodeLength checks a configured code length.
func ValidateCodeLength(length int) error {
	if length < MinCodeLength || length > MaxCodeLength {
		return NewValidationError(fmt.Sprintf("code length must be %d-%d, got %d", MinCodeLength, MaxCodeLength, length))
	}
	return nil
}

// ValidateEndpoint checks that rawURL is an absolute http(s) URL.
func ValidateEndpoint(rawURL string) error {
	if rawURL == "" {
		return NewValidationError("endpoint URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return NewValidationError(fmt.Sprintf("invalid endpoint URL: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError(fmt.Sprintf("endpoint URL must use http or https, got %q", u.Scheme))
	}
	if u.Host == "" {
		return NewValidationError("endpoint URL must include a host")
	}
	return nil
}
