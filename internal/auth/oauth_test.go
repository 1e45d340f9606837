package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestManager(t *testing.T, tokenURL string) *OAuthManager {
	t.Helper()
	manager, err := NewOAuthManager(&oauth2.Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:3000/callback",
		Scopes:       []string{"scope-a", "scope-b"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://provider.example/auth",
			TokenURL: tokenURL,
		},
	}, NewSessionStore(time.Minute), NewTokenStore(), zerolog.Nop())
	require.NoError(t, err)
	return manager
}

func TestNewOAuthManager_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*oauth2.Config)
	}{
		{"missing client id", func(c *oauth2.Config) { c.ClientID = "" }},
		{"missing client secret", func(c *oauth2.Config) { c.ClientSecret = "" }},
		{"missing redirect URI", func(c *oauth2.Config) { c.RedirectURL = "" }},
		{"missing scopes", func(c *oauth2.Config) { c.Scopes = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &oauth2.Config{
				ClientID:     "id",
				ClientSecret: "secret",
				RedirectURL:  "http://localhost/cb",
				Scopes:       []string{"s"},
			}
			tt.mutate(cfg)

			_, err := NewOAuthManager(cfg, NewSessionStore(time.Minute), NewTokenStore(), zerolog.Nop())
			require.Error(t, err)
			var cfgErr *ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestOAuthManager_BuildAuthorizationURL(t *testing.T) {
	manager := newTestManager(t, "https://provider.example/token")

	authURL, state, err := manager.BuildAuthorizationURL()
	require.NoError(t, err)
	assert.NotEmpty(t, state)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "test-client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:3000/callback", q.Get("redirect_uri"))
	assert.Equal(t, "scope-a scope-b", q.Get("scope"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, state, q.Get("state"))
	assert.Len(t, q.Get("code_challenge"), 43)
}

func TestOAuthManager_BuildAuthorizationURL_FreshSessionPerCall(t *testing.T) {
	manager := newTestManager(t, "https://provider.example/token")

	url1, state1, err := manager.BuildAuthorizationURL()
	require.NoError(t, err)
	url2, state2, err := manager.BuildAuthorizationURL()
	require.NoError(t, err)

	assert.NotEqual(t, state1, state2)
	assert.NotEqual(t, url1, url2)
}

func TestOAuthManager_ExchangeCode_UnknownState(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	manager := newTestManager(t, server.URL)

	_, err := manager.ExchangeCode(context.Background(), "some-code", "unknown-or-already-used")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, called, "a dead session must be rejected before any network call")
}

func TestOAuthManager_ExchangeCode_Success(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "new-access-token",
			"refresh_token": "new-refresh-token",
			"token_type": "Bearer",
			"expires_in": 3600
		}`))
	}))
	defer server.Close()

	manager := newTestManager(t, server.URL)
	_, state, err := manager.BuildAuthorizationURL()
	require.NoError(t, err)

	record, err := manager.ExchangeCode(context.Background(), "auth-code-1", state)
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "auth-code-1", gotForm.Get("code"))
	assert.Equal(t, "http://localhost:3000/callback", gotForm.Get("redirect_uri"))
	assert.Regexp(t, "^[A-Za-z0-9._~-]{64}$", gotForm.Get("code_verifier"))

	assert.Equal(t, "new-access-token", record.AccessToken)
	assert.NoError(t, uuid.Validate(record.UserID))
	assert.WithinDuration(t, time.Now().Add(time.Hour), record.Expiry, time.Minute)

	// The record is resolvable afterwards, refresh token held server-side.
	token, err := manager.Token(record.UserID)
	require.NoError(t, err)
	assert.Equal(t, "new-access-token", token.AccessToken)
	assert.Equal(t, "new-refresh-token", token.RefreshToken)
}

func TestOAuthManager_ExchangeCode_StateIsSingleShot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "tok", "token_type": "Bearer", "expires_in": 3600}`))
	}))
	defer server.Close()

	manager := newTestManager(t, server.URL)
	_, state, err := manager.BuildAuthorizationURL()
	require.NoError(t, err)

	_, err = manager.ExchangeCode(context.Background(), "code", state)
	require.NoError(t, err)

	// Replaying the callback against the consumed session must fail.
	_, err = manager.ExchangeCode(context.Background(), "code", state)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestOAuthManager_ExchangeCode_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "code already redeemed"}`))
	}))
	defer server.Close()

	manager := newTestManager(t, server.URL)
	_, state, err := manager.BuildAuthorizationURL()
	require.NoError(t, err)

	_, err = manager.ExchangeCode(context.Background(), "bad-code", state)
	require.Error(t, err)

	var exchangeErr *TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, "invalid_grant", exchangeErr.Code)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Contains(t, err.Error(), "code already redeemed")
}

func TestOAuthManager_Refresh_Success(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "refreshed-access", "token_type": "Bearer", "expires_in": 3600}`))
	}))
	defer server.Close()

	manager := newTestManager(t, server.URL)
	manager.tokens.Put("user-1", &oauth2.Token{
		AccessToken:  "old-access",
		RefreshToken: "long-lived-refresh",
		Expiry:       time.Now().Add(-time.Minute),
	})

	record, err := manager.Refresh(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "refresh_token", gotForm.Get("grant_type"))
	assert.Equal(t, "long-lived-refresh", gotForm.Get("refresh_token"))
	assert.Equal(t, "refreshed-access", record.AccessToken)
	assert.Equal(t, "user-1", record.UserID)

	// The provider omitted the refresh token; the old one is preserved.
	token, err := manager.Token("user-1")
	require.NoError(t, err)
	assert.Equal(t, "long-lived-refresh", token.RefreshToken)
}

func TestOAuthManager_Refresh_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "token revoked"}`))
	}))
	defer server.Close()

	manager := newTestManager(t, server.URL)
	manager.tokens.Put("user-1", &oauth2.Token{
		AccessToken:  "old",
		RefreshToken: "revoked-refresh",
		Expiry:       time.Now().Add(-time.Minute),
	})

	_, err := manager.Refresh(context.Background(), "user-1")
	require.Error(t, err)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestOAuthManager_Refresh_UnknownUser(t *testing.T) {
	manager := newTestManager(t, "https://provider.example/token")

	_, err := manager.Refresh(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestOAuthManager_Refresh_NoRefreshToken(t *testing.T) {
	manager := newTestManager(t, "https://provider.example/token")
	manager.tokens.Put("user-1", &oauth2.Token{
		AccessToken: "access-only",
		Expiry:      time.Now().Add(-time.Minute),
	})

	_, err := manager.Refresh(context.Background(), "user-1")
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
}

func TestOAuthManager_Logout(t *testing.T) {
	manager := newTestManager(t, "https://provider.example/token")
	manager.tokens.Put("user-1", &oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(time.Hour),
	})

	manager.Logout("user-1")

	_, err := manager.Token("user-1")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
