package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// DefaultSessionTTL bounds how long an abandoned login attempt is redeemable.
const DefaultSessionTTL = 10 * time.Minute

// authSession is the pending half of a login attempt: the PKCE verifier that
// must be presented at code exchange, and when it was created.
type authSession struct {
	Verifier  string
	CreatedAt time.Time
}

// SessionStore maps opaque session ids (the OAuth state parameter) to pending
// PKCE verifiers. Entries are single-use: Consume atomically removes what it
// returns, so an id can never be redeemed twice. Entries that are never
// consumed are evicted after the TTL by the cache janitor.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions *cache.Cache
}

// NewSessionStore creates a SessionStore with the given TTL. A TTL of zero
// falls back to DefaultSessionTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: cache.New(ttl, ttl/2),
	}
}

// Create stores the verifier under a fresh unguessable session id and
// returns the id. The id doubles as the anti-CSRF state parameter.
func (s *SessionStore) Create(verifier string) (string, error) {
	sessionID := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Set(sessionID, authSession{
		Verifier:  verifier,
		CreatedAt: time.Now(),
	}, cache.DefaultExpiration)

	return sessionID, nil
}

// Consume atomically looks up and removes the session, returning its
// verifier. It returns ErrSessionNotFound if the id is unknown, already
// consumed, or older than the TTL. Under concurrent calls for the same id,
// exactly one caller succeeds.
func (s *SessionStore) Consume(sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}
	s.sessions.Delete(sessionID)

	sess := v.(authSession)
	if time.Since(sess.CreatedAt) > s.ttl {
		return "", ErrSessionNotFound
	}
	return sess.Verifier, nil
}

// Len reports the number of pending sessions, including any not yet swept.
func (s *SessionStore) Len() int {
	return s.sessions.ItemCount()
}
