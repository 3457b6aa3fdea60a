package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultTOTPPeriod is the RFC 6238 time step
	DefaultTOTPPeriod = 30 * time.Second

	// DefaultTOTPSkew is the number of steps accepted either side of now
	DefaultTOTPSkew = 1

	// secretBytes is the length of generated secrets (160 bits, as for SHA-1)
	secretBytes = 20
)

// TOTP verifies codes offline against a shared secret (RFC 6238, HMAC-SHA1).
type TOTP struct {
	secret string
	Digits int
	// Period below one second falls back to DefaultTOTPPeriod
	Period time.Duration
	Skew   int

	// Now returns the current time; replaced in tests
	Now func() time.Time
}

// NewTOTP creates a verifier for a base32 secret as shown by authenticator
// setup screens. Spaces, lowercase and missing padding are accepted.
func NewTOTP(secret string, digits int) (*TOTP, error) {
	cleaned, err := NormalizeSecret(secret)
	if err != nil {
		return nil, err
	}
	if err := ValidateCodeLength(digits); err != nil {
		return nil, err
	}

	return &TOTP{
		secret: cleaned,
		Digits: digits,
		Period: DefaultTOTPPeriod,
		Skew:   DefaultTOTPSkew,
		Now:    time.Now,
	}, nil
}

// NormalizeSecret returns secret in canonical form (uppercase base32, no
// spaces or padding) after checking that it decodes.
func NormalizeSecret(secret string) (string, error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(secret, " ", ""))
	cleaned = strings.TrimRight(cleaned, "=")
	if cleaned == "" {
		return "", NewValidationError("TOTP secret cannot be empty")
	}

	if _, err := totp.GenerateCodeCustom(cleaned, time.Unix(0, 0), totp.ValidateOpts{Digits: otp.DigitsSix}); err != nil {
		return "", NewValidationError(fmt.Sprintf("TOTP secret is not valid base32: %v", err))
	}
	return cleaned, nil
}

// GenerateKey creates a random secret for account. The key carries the
// secret and the otpauth:// URI authenticator apps import from a QR code.
func GenerateKey(account, issuer string, digits int) (*otp.Key, error) {
	if err := ValidateCodeLength(digits); err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      uint(DefaultTOTPPeriod / time.Second),
		SecretSize:  secretBytes,
		Digits:      otp.Digits(digits),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	return key, nil
}

// CodeAt returns the code for the time step containing at
func (t *TOTP) CodeAt(at time.Time) string {
	// The secret was checked by NewTOTP, so generation cannot fail
	code, _ := totp.GenerateCodeCustom(t.secret, at, t.opts())
	return code
}

// Code returns the current code
func (t *TOTP) Code() string {
	return t.CodeAt(t.now())
}

// Remaining returns how long the current code stays valid
func (t *TOTP) Remaining() time.Duration {
	step := int64(t.period() / time.Second)
	elapsed := t.now().Unix() % step
	return time.Duration(step-elapsed) * time.Second
}

// Verify implements Verifier
func (t *TOTP) Verify(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return ClassifyNetworkError(err, "")
	}
	if err := ValidateCode(code, t.Digits); err != nil {
		return err
	}

	ok, err := totp.ValidateCustom(code, t.secret, t.now(), t.opts())
	if err != nil {
		return NewValidationError(fmt.Sprintf("failed to validate code: %v", err))
	}
	if !ok {
		return NewRejectedError("Invalid TOTP code")
	}
	return nil
}

func (t *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(t.period() / time.Second),
		Skew:      uint(max(t.Skew, 0)),
		Digits:    otp.Digits(t.Digits),
		Algorithm: otp.AlgorithmSHA1,
	}
}

func (t *TOTP) period() time.Duration {
	if t.Period < time.Second {
		return DefaultTOTPPeriod
	}
	return t.Period
}

func (t *TOTP) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}
