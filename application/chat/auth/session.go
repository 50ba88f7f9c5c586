package auth

import (
	"sync"
	"time"

	"peer-chat/application/http/semantic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session token.
const CookieName = "auth"

const DefaultSessionTTL = time.Hour

type session struct {
	user    string
	expires time.Time
}

// Sessions hands out opaque tokens valid for a fixed time.
type Sessions struct {
	clock clock.Clock
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

func NewSessions(clock clock.Clock, ttl time.Duration) *Sessions {
	return &Sessions{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]session),
	}
}

// Create starts a session for user and returns the cookie that carries it.
func (s *Sessions) Create(user string) semantic.SetCookie {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.sessions[token] = session{user: user, expires: s.clock.Now().Add(s.ttl)}

	return semantic.SetCookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: semantic.SameSiteLax,
	}
}

// Validate returns the user owning token.
func (s *Sessions) Validate(token string) (user string, ok bool) {
	if token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return "", false
	}
	if !s.clock.Now().Before(sess.expires) {
		delete(s.sessions, token)
		return "", false
	}

	return sess.user, true
}

// sweep drops expired sessions. Callers hold mu.
func (s *Sessions) sweep() {
	now := s.clock.Now()
	for token, sess := range s.sessions {
		if !now.Before(sess.expires) {
			delete(s.sessions, token)
		}
	}
}
