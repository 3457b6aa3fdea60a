package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/urls"
	"github.com/muurk/mfaentry/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// RequestIDHeader carries a per-request correlation ID
	RequestIDHeader = "X-Request-ID"
)

// Verifier checks a complete code.
type Verifier interface {
	Verify(ctx context.Context, code string) error
}

// VerifierFunc adapts a function to the Verifier interface
type VerifierFunc func(ctx context.Context, code string) error

// Verify implements Verifier
func (f VerifierFunc) Verify(ctx context.Context, code string) error {
	return f(ctx, code)
}

// Token is the token pair returned by a successful login
type Token struct {
	AccessToken            string `json:"access_token"`
	RefreshToken           string `json:"refresh_token"`
	TokenType              string `json:"token_type"`
	PasswordChangeRequired bool   `json:"password_change_required"`
}

// LoginRequest is the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// SetupResponse is returned when enrolling a user in TOTP MFA
type SetupResponse struct {
	Secret    string `json:"secret"`
	QRCodeURI string `json:"qr_code_uri"`
}

type codeRequest struct {
	TOTPCode string `json:"totp_code"`
}

// errorBody is the error shape returned by the auth API
type errorBody struct {
	Detail string `json:"detail"`
}

// Client is an HTTP client for the auth API's MFA endpoints
type Client struct {
	// BaseURL is the auth API base URL (e.g., "https://auth.example.com")
	BaseURL string

	// Token is the bearer access token sent to authenticated endpoints
	Token string

	// ActivatePath, LoginPath and SetupPath are joined to BaseURL
	ActivatePath string
	LoginPath    string
	SetupPath    string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff doubles the delay after each retry
	UseExponentialBackoff bool

	// newRequestID generates X-Request-ID values
	newRequestID func() string
}

// NewClient creates a client for the auth API at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		ActivatePath:          urls.MFAActivatePath,
		LoginPath:             urls.LoginPath,
		SetupPath:             urls.MFASetupPath,
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		newRequestID:          uuid.NewString,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetToken sets the bearer token
func (c *Client) SetToken(token string) {
	c.Token = token
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Verify confirms code for the token's user. A 400 response means the code
// was rejected.
func (c *Client) Verify(ctx context.Context, code string) error {
	if c.Token == "" {
		return NewAuthError("no access token configured")
	}
	if code == "" {
		return NewValidationError("code cannot be empty")
	}

	_, err := c.doWithRetry(ctx, http.MethodPost, c.ActivatePath, codeRequest{TOTPCode: code}, true)
	return err
}

// Login exchanges credentials and a code for a token pair
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Token, error) {
	if req.Email == "" || req.Password == "" {
		return nil, NewValidationError("email and password are required")
	}

	body, err := c.doWithRetry(ctx, http.MethodPost, c.LoginPath, req, false)
	if err != nil {
		// Login reports a wrong code the same way as a wrong password
		var vErr *VerifyError
		if errors.As(err, &vErr) && vErr.Type == ErrTypeAuth {
			return nil, &VerifyError{
				Type:       ErrTypeRejected,
				Message:    vErr.Message,
				StatusCode: vErr.StatusCode,
				Endpoint:   vErr.Endpoint,
			}
		}
		return nil, err
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, NewParseError("failed to parse login response", err)
	}
	if token.AccessToken == "" {
		return nil, NewParseError("login response has no access token", nil)
	}
	return &token, nil
}

// Setup enrolls the token's user in TOTP MFA and returns the new secret
func (c *Client) Setup(ctx context.Context) (*SetupResponse, error) {
	if c.Token == "" {
		return nil, NewAuthError("no access token configured")
	}

	body, err := c.doWithRetry(ctx, http.MethodPost, c.SetupPath, nil, true)
	if err != nil {
		return nil, err
	}

	var setup SetupResponse
	if err := json.Unmarshal(body, &setup); err != nil {
		return nil, NewParseError("failed to parse setup response", err)
	}
	if setup.Secret == "" {
		return nil, NewParseError("setup response has no secret", nil)
	}
	return &setup, nil
}

// doWithRetry performs a request, retrying retryable failures with backoff
func (c *Client) doWithRetry(ctx context.Context, method, path string, payload any, auth bool) ([]byte, error) {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, currentDelay); err != nil {
				return nil, ClassifyNetworkError(err, c.BaseURL+path)
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		body, err := c.doAttempt(ctx, method, path, payload, auth, attempt+1)
		if err == nil {
			return body, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// doAttempt performs a single request
func (c *Client) doAttempt(ctx context.Context, method, path string, payload any, auth bool, attempt int) ([]byte, error) {
	endpoint := c.BaseURL + path

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("failed to encode request: %v", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("failed to create request: %v", err))
	}

	requestID := c.newRequestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	logging.LogVerifyRequest(requestID, method, endpoint, attempt)
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		vErr := ClassifyNetworkError(err, endpoint)
		logging.LogVerifyResult(requestID, 0, time.Since(start), vErr)
		return nil, vErr
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		vErr := NewNetworkError("failed to read response body", err)
		logging.LogVerifyResult(requestID, resp.StatusCode, time.Since(start), vErr)
		return nil, vErr
	}

	vErr := statusError(resp.StatusCode, body)
	if vErr != nil {
		vErr.Endpoint = endpoint
		logging.LogVerifyResult(requestID, resp.StatusCode, time.Since(start), vErr)
		return nil, vErr
	}

	logging.LogVerifyResult(requestID, resp.StatusCode, time.Since(start), nil)
	return body, nil
}

// statusError maps a non-2xx response to a VerifyError
func statusError(status int, body []byte) *VerifyError {
	if status >= 200 && status < 300 {
		return nil
	}

	detail := errorDetail(body)

	switch {
	case status == http.StatusBadRequest:
		if detail == "" {
			detail = "Invalid TOTP code"
		}
		return NewRejectedError(detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if detail == "" {
			detail = "authentication failed"
		}
		e := NewAuthError(detail)
		e.StatusCode = status
		return e
	default:
		if detail == "" {
			detail = fmt.Sprintf("unexpected status code: %d", status)
		}
		return NewHTTPError(status, detail)
	}
}

// errorDetail extracts the "detail" field from an error response. FastAPI
// validation errors carry a list there and are reported without detail.
func errorDetail(body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Detail
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LoginVerifier completes a password login with the entered code. The
// returned token pair is kept for the caller.
type LoginVerifier struct {
	Client   *Client
	Email    string
	Password string

	token *Token
}

// Verify implements Verifier
func (v *LoginVerifier) Verify(ctx context.Context, code string) error {
	token, err := v.Client.Login(ctx, LoginRequest{
		Email:    v.Email,
		Password: v.Password,
		TOTPCode: code,
	})
	if err != nil {
		return err
	}
	v.token = token
	return nil
}

// Token returns the token pair from the last successful login, or nil
func (v *LoginVerifier) Token() *Token {
	return v.token
}
