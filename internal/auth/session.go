package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// Session ties an opaque token to a logged-in user.
type Session struct {
	Token    string
	UserID   int64
	Username string
}

// SessionStore keeps sessions in memory with automatic expiry. Tokens are
// random UUIDs; losing the process logs everyone out, which is acceptable
// for a single-instance deployment.
type SessionStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		cache: gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Create mints a new session token for the user.
func (s *SessionStore) Create(userID int64, username string) Session {
	sess := Session{
		Token:    uuid.NewString(),
		UserID:   userID,
		Username: username,
	}
	s.cache.Set(sess.Token, sess, s.ttl)
	return sess
}

// Get resolves a token to its session, refusing expired or unknown tokens.
func (s *SessionStore) Get(token string) (Session, error) {
	v, ok := s.cache.Get(token)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return v.(Session), nil
}

// Delete drops a session, e.g. on logout.
func (s *SessionStore) Delete(token string) {
	s.cache.Delete(token)
}

// TTL reports the configured session lifetime, used for cookie expiry.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}
