package errors

import "errors"

// Error taxonomy shared by the session, token and step-up layers.
// Callers outside the service only ever see these coarse categories.
var (
	// Login errors
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Refresh token errors
	ErrMissingToken  = errors.New("refresh token missing")
	ErrTokenNotFound = errors.New("invalid refresh token")
	ErrTokenRevoked  = errors.New("refresh token revoked")
	ErrTokenExpired  = errors.New("refresh token expired")
	ErrOwnerNotFound = errors.New("refresh token owner not found")

	// Access token errors
	ErrInvalidAccessToken    = errors.New("invalid access token")
	ErrPrincipalTypeMismatch = errors.New("principal type mismatch")

	// Step-up errors
	ErrTooManyAttempts = errors.New("too many failed attempts")

	// Startup errors
	ErrMisconfiguredSecret = errors.New("misconfigured signing secret")

	// General errors
	ErrInternal = errors.New("internal error")
)
