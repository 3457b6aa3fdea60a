// Package verify checks entered MFA codes against a verification backend.
//
// # Verifiers
//
// Everything that can check a code implements Verifier:
//
//	type Verifier interface {
//	    Verify(ctx context.Context, code string) error
//	}
//
// Three implementations are provided:
//
//   - Client: the auth API over HTTP. Verify posts {"totp_code": code} to the
//     MFA activate endpoint with a bearer token.
//   - LoginVerifier: completes a password login by posting email, password
//     and code to the login endpoint, keeping the returned tokens.
//   - TOTP: an offline RFC 6238 verifier against a base32 secret, for local
//     testing without a backend.
//
// # Retries
//
// Client retries transport failures and 5xx responses with exponential
// backoff (1s, 2s, 4s, capped at 30s by default). Rejections (400), auth
// failures (401) and other 4xx responses are returned immediately: a
// rejected code is for the user to fix, not for the client to resend.
//
// # Error Handling
//
// All failures are *VerifyError values carrying a category:
//
//	if err := client.Verify(ctx, code); err != nil {
//	    if verify.IsRejected(err) {
//	        // wrong code, ask again
//	    }
//	    fmt.Println(verify.UserMessage(err))
//	}
//
// UserMessage returns a short line suitable for display under the code
// cells; Troubleshooting returns longer hints for a failure box.
package verify
