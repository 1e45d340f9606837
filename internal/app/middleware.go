package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gapirelay-go/internal/auth"
)

// contextKey is a custom type to use as a key for context values.
type contextKey string

// authContextKey is the key for storing the resolved AuthContext.
const authContextKey = contextKey("authContext")

// AuthContext is the single normalized result of authentication resolution:
// every downstream handler consumes one access token, no matter how the
// caller presented its credential.
type AuthContext struct {
	// UserID is the relay-issued id, set only when the bearer value resolved
	// to a stored token record.
	UserID      string
	AccessToken string
}

// requireAuth resolves the caller's bearer credential to an AuthContext. The
// bearer value is either a relay-issued user id (preferred; resolved against
// the token store, expiry enforced) or a raw provider access token passed
// through as-is. Absent or stale credentials get a 401; client-supplied user
// ids in query strings are never honored.
func (a *Application) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "missing_authorization", "sign in to use this endpoint")
			return
		}
		bearer, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || bearer == "" {
			writeError(w, http.StatusUnauthorized, "invalid_authorization", "expected a bearer credential")
			return
		}

		actx := AuthContext{AccessToken: bearer}
		token, err := a.Auth.Token(bearer)
		switch {
		case err == nil:
			actx = AuthContext{UserID: bearer, AccessToken: token.AccessToken}
		case errors.Is(err, auth.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "token_expired", "refresh the token or sign in again")
			return
		case errors.Is(err, auth.ErrTokenNotFound):
			// Not a relay user id; treat the bearer value as a provider
			// access token and let the provider judge it.
		default:
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(withAuthContext(r.Context(), actx)))
	})
}

// cors allows the configured browser origins to call the relay.
func (a *Application) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && a.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Application) originAllowed(origin string) bool {
	for _, allowed := range a.Config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// withAuthContext adds the resolved AuthContext to the context.
func withAuthContext(ctx context.Context, actx AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, actx)
}

// authFromContext retrieves the AuthContext placed by requireAuth.
func authFromContext(r *http.Request) (AuthContext, bool) {
	actx, ok := r.Context().Value(authContextKey).(AuthContext)
	return actx, ok
}
