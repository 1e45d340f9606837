package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a state parameter does not match a
	// pending authorization session, either because it never existed, has
	// already been consumed, or has expired. The login flow must be restarted.
	ErrSessionNotFound = errors.New("authorization session not found or expired")

	// ErrTokenNotFound is returned when no token record exists for a user.
	ErrTokenNotFound = errors.New("no token stored for user")

	// ErrTokenExpired is returned when a stored access token is past its
	// expiry; the caller must refresh or re-authenticate.
	ErrTokenExpired = errors.New("access token expired")
)

// ConfigurationError reports a missing or unusable OAuth client setting.
// It is fatal at startup and never retried.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("oauth configuration invalid: %s", e.Field)
}

// TokenExchangeError is the provider's rejection of an authorization code,
// preserved verbatim for diagnostics. A second attempt requires a fresh
// authorization code from a fresh login.
type TokenExchangeError struct {
	Code        string
	Description string
}

func (e *TokenExchangeError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("token exchange rejected: %s", e.Code)
	}
	return fmt.Sprintf("token exchange rejected: %s: %s", e.Code, e.Description)
}

// RefreshError is the provider's rejection of a refresh token (revoked,
// expired). The caller must force re-authentication.
type RefreshError struct {
	Code        string
	Description string
}

func (e *RefreshError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("token refresh rejected: %s", e.Code)
	}
	return fmt.Sprintf("token refresh rejected: %s: %s", e.Code, e.Description)
}
