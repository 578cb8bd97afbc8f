// Package session holds the injected credential capability. The agent never
// reads the device's secure storage itself; the hosting shell supplies a
// TokenSource and receives an invalidation callback when the credential is
// rejected.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidated is returned once the session has been marked invalid; the
// caller must fail the pending operation and not retry with the same token.
var ErrInvalidated = errors.New("session invalidated, re-authentication required")

// TokenSource supplies the current bearer credential.
type TokenSource interface {
	Token() (string, error)
}

// StaticTokenSource is a fixed credential, typically loaded from the
// environment by the daemon.
type StaticTokenSource string

func (t StaticTokenSource) Token() (string, error) { return string(t), nil }

// InvalidateFunc is notified once when the session dies.
type InvalidateFunc func(reason string)

// Session mediates access to the bearer token and tracks validity.
type Session struct {
	source    TokenSource
	onInvalid InvalidateFunc

	mu      sync.Mutex
	invalid bool
}

// New creates a session around a token source. onInvalid may be nil.
func New(source TokenSource, onInvalid InvalidateFunc) *Session {
	return &Session{source: source, onInvalid: onInvalid}
}

// Token returns the current bearer credential, or ErrInvalidated when the
// session is dead. A token whose JWT exp claim has already passed is treated
// as dead without a round trip; the server's 401 verdict always wins anyway.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	if s.invalid {
		s.mu.Unlock()
		return "", ErrInvalidated
	}
	s.mu.Unlock()

	tok, err := s.source.Token()
	if err != nil {
		return "", err
	}
	if Expired(tok, time.Now()) {
		s.Invalidate("token expired")
		return "", ErrInvalidated
	}
	return tok, nil
}

// Invalidate marks the session dead and fires the callback exactly once.
func (s *Session) Invalidate(reason string) {
	s.mu.Lock()
	already := s.invalid
	s.invalid = true
	s.mu.Unlock()
	if already {
		return
	}
	log.Printf("session invalidated: %s", reason)
	if s.onInvalid != nil {
		s.onInvalid(reason)
	}
}

// Valid reports whether the session is still usable.
func (s *Session) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.invalid
}

// Expired reports whether tok is a JWT with an exp claim in the past. Tokens
// that do not parse as JWTs are treated as opaque and left for the server to
// judge.
func Expired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
