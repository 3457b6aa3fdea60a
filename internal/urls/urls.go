package urls

// MFAActivatePath confirms a TOTP code for the authenticated user.
// Request body: {"totp_code": "123456"}; 400 means the code was rejected.
const MFAActivatePath = "/api/auth/mfa/activate"

// LoginPath exchanges email, password and TOTP code for a token pair.
const LoginPath = "/api/auth/login"

// MFASetupPath enrolls the authenticated user and returns the TOTP secret.
const MFASetupPath = "/api/auth/mfa/setup"

// AuthenticatorSetupGuide explains how to add the TOTP secret to an
// authenticator app.
const AuthenticatorSetupGuide = "https://muurk.github.io/mfa-entry/guides/authenticator-setup/"

// TroubleshootingGuide covers rejected codes, clock drift and endpoint errors.
const TroubleshootingGuide = "https://muurk.github.io/mfa-entry/troubleshooting/"
