package auth

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore keeps user token records in memory, keyed by the relay's
// server-generated user id. Records are not durable; a restart forces every
// user through the login flow again.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewTokenStore creates an empty TokenStore.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]*oauth2.Token),
	}
}

// Put stores or replaces the token record for a user.
func (s *TokenStore) Put(userID string, token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
}

// Get returns the token record for a user. It returns ErrTokenNotFound for
// unknown users and ErrTokenExpired when the stored access token is stale; a
// stale record is returned alongside the error so the caller can refresh.
func (s *TokenStore) Get(userID string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[userID]
	if !ok {
		return nil, ErrTokenNotFound
	}
	if !token.Valid() {
		return token, ErrTokenExpired
	}
	return token, nil
}

// Delete removes the token record for a user. Deleting an unknown user is a
// no-op.
func (s *TokenStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
}
