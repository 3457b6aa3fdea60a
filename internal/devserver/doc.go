// Package devserver implements a local stand-in for the auth API's login and
// MFA endpoints.
//
// The server holds a single account in memory and answers the three routes
// the verify client talks to, with the same status codes and JSON bodies as
// the real API. It lets the code prompt be exercised end to end without a
// deployed backend.
//
// # Routes
//
//	POST /api/auth/login         {email, password, totp_code} -> token pair
//	POST /api/auth/mfa/setup     (bearer) -> {secret, qr_code_uri}
//	POST /api/auth/mfa/activate  (bearer) {totp_code} -> {message}
//
// A wrong password and a wrong code both answer 401 "Incorrect email or
// password". Activation answers 400 "Invalid TOTP code" for a wrong code and
// 400 "MFA not set up" before setup. Malformed bodies answer 422 with a
// detail list.
//
// # TLS
//
// With GenerateCert the server uses a self-signed ECDSA certificate created
// in memory for localhost. CertPath and KeyPath load a certificate from disk
// instead. Neither means plain HTTP.
//
// # Usage Example
//
//	srv, err := devserver.New(&devserver.Config{
//	    Port:     8700,
//	    Email:    "ada@example.com",
//	    Password: "correct horse",
//	    Secret:   "JBSWY3DPEHPK3PXP",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Blocks until interrupted
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package devserver
