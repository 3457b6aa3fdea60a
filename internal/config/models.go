package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/mfaentry/internal/segment"
	"github.com/muurk/mfaentry/internal/urls"
	"github.com/muurk/mfaentry/internal/verify"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                 `yaml:"version"`
	Accounts    map[string]*Account `yaml:"accounts,omitempty"` // Keyed by email address
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Account records a login that completed MFA.
// Passwords and tokens are NEVER stored.
type Account struct {
	Endpoint     string    `yaml:"endpoint,omitempty"`      // Base URL the login went to
	LastVerified time.Time `yaml:"last_verified,omitempty"` // Time of the last successful login
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	CodeLength  int       `yaml:"code_length"`  // Number of digit cells
	AutoFocus   bool      `yaml:"auto_focus"`   // Focus the first cell on start
	AutoSubmit  bool      `yaml:"auto_submit"`  // Verify as soon as every cell is filled
	MaxAttempts int       `yaml:"max_attempts"` // Rejected codes before the prompt gives up
	Endpoint    *Endpoint `yaml:"endpoint,omitempty"`
}

// Endpoint describes the auth API used for verification.
type Endpoint struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	ActivatePath   string `yaml:"activate_path"`
	LoginPath      string `yaml:"login_path"`
	SetupPath      string `yaml:"setup_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retries        int    `yaml:"retries"`
}

// Timeout returns the request timeout as a duration.
func (e *Endpoint) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Accounts:    make(map[string]*Account),
		Preferences: DefaultPreferences(),
	}
}

// DefaultPreferences returns the preferences used when the file has none.
func DefaultPreferences() *Preferences {
	return &Preferences{
		CodeLength:  segment.DefaultLength,
		AutoFocus:   true,
		AutoSubmit:  true,
		MaxAttempts: 3,
		Endpoint:    DefaultEndpoint(),
	}
}

// DefaultEndpoint returns the endpoint settings for the standard auth API.
func DefaultEndpoint() *Endpoint {
	return &Endpoint{
		ActivatePath:   urls.MFAActivatePath,
		LoginPath:      urls.LoginPath,
		SetupPath:      urls.MFASetupPath,
		TimeoutSeconds: int(verify.DefaultTimeout / time.Second),
		Retries:        verify.DefaultMaxRetries,
	}
}

// normalize fills in anything a hand-edited file left out.
func (r *Registry) normalize() {
	if r.Accounts == nil {
		r.Accounts = make(map[string]*Account)
	}
	if r.Preferences == nil {
		r.Preferences = DefaultPreferences()
	}
	if r.Preferences.Endpoint == nil {
		r.Preferences.Endpoint = DefaultEndpoint()
	}
}

// GetAccount retrieves an account by email.
// Returns nil if the account doesn't exist in the registry.
func (r *Registry) GetAccount(email string) *Account {
	return r.Accounts[strings.ToLower(email)]
}

// EnsureAccount ensures an account entry exists in the registry.
// Emails are stored lowercased.
func (r *Registry) EnsureAccount(email string) *Account {
	if r.Accounts == nil {
		r.Accounts = make(map[string]*Account)
	}

	key := strings.ToLower(email)
	if account, exists := r.Accounts[key]; exists {
		return account
	}

	account := &Account{}
	r.Accounts[key] = account
	return account
}

// RecordLogin notes a successful login for email against endpoint.
func (r *Registry) RecordLogin(email, endpoint string) {
	account := r.EnsureAccount(email)
	account.Endpoint = endpoint
	account.LastVerified = time.Now()
}

// setting describes one key accepted by Set and Get.
type setting struct {
	get func(p *Preferences) string
	set func(p *Preferences, value string) error
}

var settings = map[string]setting{
	"code_length": {
		get: func(p *Preferences) string { return strconv.Itoa(p.CodeLength) },
		set: func(p *Preferences, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("code_length must be a number: %w", err)
			}
			if err := verify.ValidateCodeLength(n); err != nil {
				return err
			}
			p.CodeLength = n
			return nil
		},
	},
	"auto_focus": {
		get: func(p *Preferences) string { return strconv.FormatBool(p.AutoFocus) },
		set: boolSetter(func(p *Preferences, b bool) { p.AutoFocus = b }),
	},
	"auto_submit": {
		get: func(p *Preferences) string { return strconv.FormatBool(p.AutoSubmit) },
		set: boolSetter(func(p *Preferences, b bool) { p.AutoSubmit = b }),
	},
	"max_attempts": {
		get: func(p *Preferences) string { return strconv.Itoa(p.MaxAttempts) },
		set: intSetter("max_attempts", 1, 20, func(p *Preferences, n int) { p.MaxAttempts = n }),
	},
	"endpoint.base_url": {
		get: func(p *Preferences) string { return p.Endpoint.BaseURL },
		set: func(p *Preferences, v string) error {
			v = strings.TrimRight(v, "/")
			if err := verify.ValidateEndpoint(v); err != nil {
				return err
			}
			p.Endpoint.BaseURL = v
			return nil
		},
	},
	"endpoint.activate_path": {
		get: func(p *Preferences) string { return p.Endpoint.ActivatePath },
		set: pathSetter(func(p *Preferences, s string) { p.Endpoint.ActivatePath = s }),
	},
	"endpoint.login_path": {
		get: func(p *Preferences) string { return p.Endpoint.LoginPath },
		set: pathSetter(func(p *Preferences, s string) { p.Endpoint.LoginPath = s }),
	},
	"endpoint.setup_path": {
		get: func(p *Preferences) string { return p.Endpoint.SetupPath },
		set: pathSetter(func(p *Preferences, s string) { p.Endpoint.SetupPath = s }),
	},
	"endpoint.timeout_seconds": {
		get: func(p *Preferences) string { return strconv.Itoa(p.Endpoint.TimeoutSeconds) },
		set: intSetter("endpoint.timeout_seconds", 1, 300, func(p *Preferences, n int) { p.Endpoint.TimeoutSeconds = n }),
	},
	"endpoint.retries": {
		get: func(p *Preferences) string { return strconv.Itoa(p.Endpoint.Retries) },
		set: intSetter("endpoint.retries", 0, 10, func(p *Preferences, n int) { p.Endpoint.Retries = n }),
	},
}

func boolSetter(apply func(*Preferences, bool)) func(*Preferences, string) error {
	return func(p *Preferences, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		apply(p, b)
		return nil
	}
}

func intSetter(key string, lo, hi int, apply func(*Preferences, int)) func(*Preferences, string) error {
	return func(p *Preferences, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		if n < lo || n > hi {
			return fmt.Errorf("%s must be between %d and %d, got %d", key, lo, hi, n)
		}
		apply(p, n)
		return nil
	}
}

func pathSetter(apply func(*Preferences, string)) func(*Preferences, string) error {
	return func(p *Preferences, v string) error {
		if !strings.HasPrefix(v, "/") {
			return fmt.Errorf("path must start with '/', got %q", v)
		}
		apply(p, v)
		return nil
	}
}

// Keys returns every key accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set changes the preference named by key. The registry is left unchanged
// when value doesn't validate.
func (r *Registry) Set(key, value string) error {
	s, ok := settings[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	r.normalize()
	if err := s.set(r.Preferences, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

// Get returns the current value of the preference named by key.
func (r *Registry) Get(key string) (string, error) {
	s, ok := settings[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	r.normalize()
	return s.get(r.Preferences), nil
}
