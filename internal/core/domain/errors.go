package domain

import "errors"

// Error taxonomy for backend calls and session handling.
var (
	ErrAuthentication     = errors.New("authentication required")
	ErrAuthorization      = errors.New("access forbidden")
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("validation failed")
	ErrServer             = errors.New("server error")
	ErrNetwork            = errors.New("network error")
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrMalformedToken never reaches callers of the session store; it is
	// only used internally to mark a token as expired.
	ErrMalformedToken = errors.New("malformed token")

	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrMissingCallbackToken = errors.New("oauth callback is missing token or refresh token")
	ErrNoRefreshToken       = errors.New("no refresh token available")
	ErrMalformedRefresh     = errors.New("malformed refresh response")
)
