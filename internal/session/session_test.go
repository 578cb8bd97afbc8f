package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "worker-1",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestExpired(t *testing.T) {
	now := time.Now()

	assert.False(t, Expired(signedToken(t, now.Add(time.Hour)), now))
	assert.True(t, Expired(signedToken(t, now.Add(-time.Hour)), now))

	// Opaque tokens are left for the server to judge.
	assert.False(t, Expired("not-a-jwt", now))
}

func TestSessionInvalidateFiresOnce(t *testing.T) {
	var calls int
	s := New(StaticTokenSource("opaque-token"), func(reason string) { calls++ })

	tok, err := s.Token()
	assert.NoError(t, err)
	assert.Equal(t, "opaque-token", tok)
	assert.True(t, s.Valid())

	s.Invalidate("server said 401")
	s.Invalidate("again")
	assert.Equal(t, 1, calls)
	assert.False(t, s.Valid())

	_, err = s.Token()
	assert.ErrorIs(t, err, ErrInvalidated)
}

func TestSessionRejectsExpiredJWT(t *testing.T) {
	expired := signedToken(t, time.Now().Add(-time.Minute))

	var reason string
	s := New(StaticTokenSource(expired), func(r string) { reason = r })

	_, err := s.Token()
	assert.ErrorIs(t, err, ErrInvalidated)
	assert.Equal(t, "token expired", reason)
}
