package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gapirelay-go/internal/auth"
	"gapirelay-go/internal/google"
	"gapirelay-go/internal/picker"
)

//
// Authentication Handlers
//

// handleOAuthURL starts a login attempt and hands the caller the provider
// authorization URL plus the state it must carry back.
func (a *Application) handleOAuthURL(w http.ResponseWriter, r *http.Request) {
	authURL, state, err := a.Auth.BuildAuthorizationURL()
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to build authorization URL")
		writeError(w, http.StatusInternalServerError, "authorization_url_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":   authURL,
		"state": state,
	})
}

// handleOAuthToken redeems the authorization code delivered to the redirect
// URI. The state must match a pending session; failures here mean the user
// has to sign in again from scratch.
func (a *Application) handleOAuthToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "expected JSON with code and state")
		return
	}
	if body.Code == "" || body.State == "" {
		writeError(w, http.StatusBadRequest, "missing_parameters", "code and state are required")
		return
	}

	record, err := a.Auth.ExchangeCode(r.Context(), body.Code, body.State)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleOAuthRefresh replaces the caller's access token using the refresh
// token the relay holds. The refresh token itself is never accepted from or
// returned to the client.
func (a *Application) handleOAuthRefresh(w http.ResponseWriter, r *http.Request) {
	actx, ok := authFromContext(r)
	if !ok || actx.UserID == "" {
		writeError(w, http.StatusUnauthorized, "unknown_user", "refresh requires a relay-issued credential")
		return
	}

	record, err := a.Auth.Refresh(r.Context(), actx.UserID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleLogout drops the caller's token record; the old credential fails
// fast afterwards.
func (a *Application) handleLogout(w http.ResponseWriter, r *http.Request) {
	actx, ok := authFromContext(r)
	if ok && actx.UserID != "" {
		a.Auth.Logout(actx.UserID)
	}
	w.WriteHeader(http.StatusNoContent)
}

//
// Relay Handlers
//

func (a *Application) handleProfile(w http.ResponseWriter, r *http.Request) {
	actx, _ := authFromContext(r)
	profile, err := a.Google.Profile(r.Context(), actx.AccessToken)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *Application) handleFiles(w http.ResponseWriter, r *http.Request) {
	actx, _ := authFromContext(r)
	files, err := a.Google.ListFiles(r.Context(), actx.AccessToken)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (a *Application) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	actx, _ := authFromContext(r)
	events, err := a.Google.CalendarEvents(r.Context(), actx.AccessToken, day)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (a *Application) handlePhotos(w http.ResponseWriter, r *http.Request) {
	actx, _ := authFromContext(r)
	items, err := a.Google.ListPhotos(r.Context(), actx.AccessToken)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mediaItems": items})
}

// handlePickerSession opens a provider-hosted selection session and returns
// its id and interactive URI for the caller to open out of process.
func (a *Application) handlePickerSession(w http.ResponseWriter, r *http.Request) {
	actx, _ := authFromContext(r)
	session, err := a.Google.CreatePickerSession(r.Context(), actx.AccessToken)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handlePickerMedia lists what the user picked. The client calls this once
// it has seen the picker surface close; the poller absorbs the provider's
// "not finished yet" window with bounded retries.
func (a *Application) handlePickerMedia(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_parameters", "session_id is required")
		return
	}

	actx, _ := authFromContext(r)
	items, err := a.Picker.Fetch(r.Context(), actx.AccessToken, sessionID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mediaItems": items})
}

func (a *Application) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

//
// Error mapping and response helpers
//

// writeDomainError translates the error taxonomy to HTTP statuses: 401 says
// "sign in again", 502/504 say "temporary failure, try the action again".
func (a *Application) writeDomainError(w http.ResponseWriter, err error) {
	var exchangeErr *auth.TokenExchangeError
	var refreshErr *auth.RefreshError
	var upstreamErr *google.UpstreamError
	var timeoutErr *picker.SelectionTimeoutError

	switch {
	case errors.Is(err, auth.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, "invalid_session", "invalid or expired session, sign in again")
	case errors.Is(err, auth.ErrTokenNotFound), errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized", "sign in again")
	case errors.As(err, &exchangeErr):
		writeError(w, http.StatusBadGateway, "token_exchange_failed", exchangeErr.Error())
	case errors.As(err, &refreshErr):
		writeError(w, http.StatusUnauthorized, "refresh_rejected", refreshErr.Error())
	case errors.As(err, &upstreamErr):
		if upstreamErr.StatusCode == http.StatusUnauthorized {
			writeError(w, http.StatusUnauthorized, "upstream_unauthorized", "provider rejected the token, sign in again")
			return
		}
		writeError(w, http.StatusBadGateway, "upstream_failed", upstreamErr.Error())
	case errors.As(err, &timeoutErr):
		writeError(w, http.StatusGatewayTimeout, "selection_timeout", "no media items were available, retry the selection")
	default:
		a.Logger.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"details": details,
	})
}
