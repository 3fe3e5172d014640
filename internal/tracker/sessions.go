package tracker

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long a login stays valid
const DefaultSessionTTL = 24 * time.Hour

// SessionStore keeps logged-in sessions in memory until they expire
type SessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionStore creates a SessionStore whose sessions live for ttl
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		cache: cache.New(ttl, ttl/2),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create starts a session for user
func (s *SessionStore) Create(user User) *Session {
	now := s.now()
	sess := &Session{
		Token:     uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.cache.Set(sess.Token, sess, cache.DefaultExpiration)
	return sess
}

// Get returns the live session for token
func (s *SessionStore) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	v, ok := s.cache.Get(token)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Delete ends the session for token
func (s *SessionStore) Delete(token string) {
	s.cache.Delete(token)
}

// Count returns the number of live sessions
func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}
