package devserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/mfaentry/internal/logging"
	"github.com/muurk/mfaentry/internal/urls"
	"github.com/muurk/mfaentry/internal/verify"
)

// Response details, matching the auth API
const (
	detailBadCredentials = "Incorrect email or password"
	detailInvalidToken   = "Could not validate credentials"
	detailInvalidCode    = "Invalid TOTP code"
	detailNotSetUp       = "MFA not set up"
	messageActivated     = "MFA successfully activated"
)

type codeRequest struct {
	TOTPCode string `json:"totp_code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// validationIssue mirrors one entry of a 422 response's detail list
type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Handler returns the HTTP handler serving the auth API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+urls.LoginPath, s.handleLogin)
	mux.HandleFunc("POST "+urls.MFASetupPath, s.handleSetup)
	mux.HandleFunc("POST "+urls.MFAActivatePath, s.handleActivate)
	return logRequests(mux)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req verify.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if !s.checkPassword(req.Email, req.Password) {
		writeUnauthorized(w, detailBadCredentials)
		return
	}

	// A wrong code is reported like a wrong password
	if s.MFAEnabled() && !s.checkCode(r.Context(), req.TOTPCode) {
		logging.Debug("Login rejected: invalid code", zap.String("email", req.Email))
		writeUnauthorized(w, detailBadCredentials)
		return
	}

	access := s.IssueToken()
	writeJSON(w, http.StatusOK, verify.Token{
		AccessToken:            access,
		RefreshToken:           s.newToken(),
		TokenType:              "bearer",
		PasswordChangeRequired: s.config.PasswordChangeRequired,
	})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(r)
	if !ok {
		writeUnauthorized(w, detailInvalidToken)
		return
	}

	key, err := verify.GenerateKey(email, s.config.Issuer, s.config.Digits)
	if err != nil {
		logging.Error("Failed to generate secret", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, detailResponse{Detail: "Internal server error"})
		return
	}

	// A new secret replaces the old one and needs activating again
	s.mu.Lock()
	s.secret = key.Secret()
	s.mfaEnabled = false
	s.mu.Unlock()

	logging.Info("MFA setup started", zap.String("email", email))
	writeJSON(w, http.StatusOK, verify.SetupResponse{
		Secret:    key.Secret(),
		QRCodeURI: key.URL(),
	})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(r)
	if !ok {
		writeUnauthorized(w, detailInvalidToken)
		return
	}

	var req codeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if s.Secret() == "" {
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: detailNotSetUp})
		return
	}
	if !s.checkCode(r.Context(), req.TOTPCode) {
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: detailInvalidCode})
		return
	}

	s.mu.Lock()
	s.mfaEnabled = true
	s.mu.Unlock()

	logging.Info("MFA activated", zap.String("email", email))
	writeJSON(w, http.StatusOK, messageResponse{Message: messageActivated})
}

// authenticate resolves the bearer token to the account's email
func (s *Server) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[token]
	return email, ok
}

func (s *Server) checkPassword(email, password string) bool {
	emailOK := strings.EqualFold(email, s.config.Email)
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.Password)) == 1
	return emailOK && passwordOK
}

// checkCode verifies code against the current secret
func (s *Server) checkCode(ctx context.Context, code string) bool {
	secret := s.Secret()
	if secret == "" || code == "" {
		return false
	}

	totp, err := verify.NewTOTP(secret, s.config.Digits)
	if err != nil {
		return false
	}
	totp.Now = s.now
	return totp.Verify(ctx, code) == nil
}

// decodeBody parses a JSON request body, answering 422 when it is malformed
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string][]validationIssue{
			"detail": {{Loc: []string{"body"}, Msg: err.Error(), Type: "json_invalid"}},
		})
		return false
	}
	return true
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, detailResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests echoes or assigns X-Request-ID and logs every request
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(verify.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(verify.RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logging.LogHTTPRequest(requestID, r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
