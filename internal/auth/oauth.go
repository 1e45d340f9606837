package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"gapirelay-go/internal/metrics"
)

const verifierLength = 64

// TokenRecord is the relay's view of a completed exchange: the
// server-generated user id plus the provider token bound to it. The refresh
// token never leaves the process.
type TokenRecord struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

// OAuthManager coordinates the authorization-code PKCE flow: it builds
// authorization URLs, redeems callback codes against pending sessions, and
// keeps the resulting token records.
type OAuthManager struct {
	config   *oauth2.Config
	pkce     *PKCEGenerator
	sessions *SessionStore
	tokens   *TokenStore
	logger   zerolog.Logger
}

// NewOAuthManager wires a manager from the OAuth client settings and the two
// stores. Missing client id, secret, or redirect URI is a ConfigurationError;
// nothing is retried at this level.
func NewOAuthManager(cfg *oauth2.Config, sessions *SessionStore, tokens *TokenStore, logger zerolog.Logger) (*OAuthManager, error) {
	switch {
	case cfg == nil:
		return nil, &ConfigurationError{Field: "oauth config missing"}
	case cfg.ClientID == "":
		return nil, &ConfigurationError{Field: "client id missing"}
	case cfg.ClientSecret == "":
		return nil, &ConfigurationError{Field: "client secret missing"}
	case cfg.RedirectURL == "":
		return nil, &ConfigurationError{Field: "redirect URI missing"}
	case len(cfg.Scopes) == 0:
		return nil, &ConfigurationError{Field: "scopes missing"}
	}

	return &OAuthManager{
		config:   cfg,
		pkce:     NewPKCEGenerator(),
		sessions: sessions,
		tokens:   tokens,
		logger:   logger.With().Str("component", "oauth").Logger(),
	}, nil
}

// BuildAuthorizationURL starts a login attempt: it generates a fresh PKCE
// pair, opens a session keyed by a new state value, and returns the provider
// authorization URL together with that state. Touches no network.
func (m *OAuthManager) BuildAuthorizationURL() (string, string, error) {
	verifier, err := m.pkce.GenerateCodeVerifier(verifierLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate code verifier: %w", err)
	}

	challenge, err := m.pkce.GenerateCodeChallenge(verifier)
	if err != nil {
		return "", "", fmt.Errorf("failed to derive code challenge: %w", err)
	}

	sessionID, err := m.sessions.Create(verifier)
	if err != nil {
		return "", "", fmt.Errorf("failed to create authorization session: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}

	metrics.LoginsInitiated.Inc()
	m.logger.Debug().Str("session_id", sessionID).Msg("authorization URL issued")
	return m.config.AuthCodeURL(sessionID, opts...), sessionID, nil
}

// ExchangeCode redeems an authorization code. The state must match a pending
// session; a miss fails with ErrSessionNotFound before any network call,
// which rejects both replays and cross-session code injection. On success a
// server-generated user id is minted and the token record stored under it.
func (m *OAuthManager) ExchangeCode(ctx context.Context, code, state string) (*TokenRecord, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}

	verifier, err := m.sessions.Consume(state)
	if err != nil {
		metrics.CodeExchanges.WithLabelValues("session_rejected").Inc()
		return nil, fmt.Errorf("exchange: %w", err)
	}

	token, err := m.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		metrics.CodeExchanges.WithLabelValues("provider_rejected").Inc()
		ec, desc := providerErrorDetail(err)
		m.logger.Warn().Str("error_code", ec).Msg("code exchange rejected by provider")
		return nil, &TokenExchangeError{Code: ec, Description: desc}
	}

	// The user id is minted here and never accepted as client input; it is
	// unguessable and acts as the relay's own bearer credential.
	userID := uuid.NewString()
	m.tokens.Put(userID, token)

	metrics.CodeExchanges.WithLabelValues("ok").Inc()
	m.logger.Info().Str("user_id", userID).Time("expiry", token.Expiry).Msg("code exchanged")
	return record(userID, token), nil
}

// Refresh replaces the access token for a known user using the stored
// refresh token. Provider rejection surfaces as RefreshError and the caller
// must force re-authentication.
func (m *OAuthManager) Refresh(ctx context.Context, userID string) (*TokenRecord, error) {
	token, err := m.tokens.Get(userID)
	if err != nil && !errors.Is(err, ErrTokenExpired) {
		return nil, err
	}
	if token.RefreshToken == "" {
		return nil, &RefreshError{Code: "no_refresh_token", Description: "no refresh token on record"}
	}

	newToken, err := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken}).Token()
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		ec, desc := providerErrorDetail(err)
		m.logger.Warn().Str("user_id", userID).Str("error_code", ec).Msg("refresh rejected by provider")
		return nil, &RefreshError{Code: ec, Description: desc}
	}

	// Providers often omit the refresh token on refresh; keep the old one.
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = token.RefreshToken
	}
	m.tokens.Put(userID, newToken)

	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	return record(userID, newToken), nil
}

// Token resolves the stored token for a user. Stale records are reported as
// ErrTokenExpired and never authorize calls.
func (m *OAuthManager) Token(userID string) (*oauth2.Token, error) {
	token, err := m.tokens.Get(userID)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Logout removes the user's token record immediately; later calls with the
// old relay credential fail fast without a provider round trip.
func (m *OAuthManager) Logout(userID string) {
	m.tokens.Delete(userID)
	m.logger.Info().Str("user_id", userID).Msg("logged out")
}

func record(userID string, token *oauth2.Token) *TokenRecord {
	return &TokenRecord{
		UserID:      userID,
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		Expiry:      token.Expiry,
	}
}

// providerErrorDetail extracts the provider's error code and description
// from a token endpoint failure, falling back to the raw error text.
func providerErrorDetail(err error) (string, string) {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode != "" {
			return re.ErrorCode, re.ErrorDescription
		}
		return fmt.Sprintf("http_%d", re.Response.StatusCode), string(re.Body)
	}
	return "request_failed", err.Error()
}
