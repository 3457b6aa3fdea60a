package devserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/segment"
	"github.com/muurk/mfaentry/internal/verify"
)

const (
	// DefaultPort is the default listen port
	DefaultPort = 8700

	// DefaultIssuer labels the account in authenticator apps
	DefaultIssuer = "mfa-entry"

	// shutdownTimeout bounds graceful shutdown after a signal
	shutdownTimeout = 5 * time.Second
)

// Config holds the server configuration
type Config struct {
	Host string
	Port int

	// Email and Password are the single account's credentials
	Email    string
	Password string

	// Secret enables MFA with this base32 secret. Empty means MFA is not
	// set up until a client calls the setup and activate endpoints.
	Secret string

	// Digits is the code length
	Digits int

	// Issuer is shown by authenticator apps
	Issuer string

	// PasswordChangeRequired is reported on every successful login
	PasswordChangeRequired bool

	CertPath     string // Path to certificate file (optional if GenerateCert is true)
	KeyPath      string // Path to private key file (optional if GenerateCert is true)
	GenerateCert bool   // If true, serve HTTPS with a self-signed in-memory certificate
}

// Server is a development stand-in for the auth API's login and MFA endpoints
type Server struct {
	config     *Config
	tlsConfig  *tls.Config
	listener   net.Listener
	httpServer *http.Server

	mu         sync.Mutex
	secret     string
	mfaEnabled bool
	tokens     map[string]string // access token -> email

	now      func() time.Time
	newToken func() string
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if config.Email == "" || config.Password == "" {
		return nil, errors.New("email and password are required")
	}
	if config.Digits == 0 {
		config.Digits = segment.DefaultLength
	}
	if err := verify.ValidateCodeLength(config.Digits); err != nil {
		return nil, err
	}
	if config.Issuer == "" {
		config.Issuer = DefaultIssuer
	}

	s := &Server{
		config:   config,
		tokens:   make(map[string]string),
		now:      time.Now,
		newToken: uuid.NewString,
	}

	if config.Secret != "" {
		secret, err := verify.NormalizeSecret(config.Secret)
		if err != nil {
			return nil, err
		}
		s.secret = secret
		s.mfaEnabled = true
	}

	var err error
	switch {
	case config.GenerateCert:
		logging.Info("Generating self-signed server certificate")
		certPEM, keyPEM, genErr := GenerateCertificate(certHosts(config.Host))
		if genErr != nil {
			return nil, fmt.Errorf("failed to generate certificate: %w", genErr)
		}
		s.tlsConfig, err = NewTLSConfigFromMemory(certPEM, keyPEM)
	case config.CertPath != "" || config.KeyPath != "":
		s.tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS config: %w", err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// certHosts lists the names a generated certificate is valid for
func certHosts(host string) []string {
	hosts := []string{"localhost", "127.0.0.1", "::1"}
	if host != "" && host != "0.0.0.0" && host != "::" && host != "localhost" {
		hosts = append(hosts, host)
	}
	return hosts
}

// Listen opens the listening socket. Port 0 picks a free port.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.listener = listener

	fields := []zap.Field{
		zap.String("addr", listener.Addr().String()),
		zap.Bool("tls", s.tlsConfig != nil),
		zap.Bool("mfa_enabled", s.MFAEnabled()),
	}
	if s.tlsConfig != nil {
		fields = append(fields, zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}
	logging.Info("Server listening for connections", fields...)
	return nil
}

// URL returns the base URL clients should use. Valid after Listen.
func (s *Server) URL() string {
	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}

	host := s.config.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	port := s.config.Port
	if s.listener != nil {
		if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, fmt.Sprintf("%d", port)))
}

// Serve handles requests until ctx is canceled, an interrupt arrives or the
// listener fails. Listen must be called first.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
	case <-ctx.Done():
		logging.Info("Context done, stopping server...")
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Start listens and serves until shutdown
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown timeout: %w", err)
	}

	logging.Info("Server shutdown complete")
	return nil
}

// Secret returns the current TOTP secret, or "" if MFA is not set up
func (s *Server) Secret() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret
}

// MFAEnabled reports whether logins require a code
func (s *Server) MFAEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mfaEnabled
}

// IssueToken returns a new access token for the account, as if it had
// logged in. Used to enroll from the command line before MFA is set up.
func (s *Server) IssueToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.newToken()
	s.tokens[token] = strings.ToLower(s.config.Email)
	return token
}
