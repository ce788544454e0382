package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager(ttl time.Duration) *TokenManager {
	tm := NewTokenManager("test-secret", ttl)
	tm.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return tm
}

func TestTokenRoundTrip(t *testing.T) {
	tm := newTestTokenManager(time.Hour)
	userID := uuid.New()

	token, err := tm.Issue(userID, "aluno@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token.Value)
	require.NotEmpty(t, token.SessionID)
	assert.Equal(t, tm.now().Add(time.Hour), token.ExpiresAt)

	claims, err := tm.Verify(token.Value)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, token.SessionID, claims.SessionID)
	assert.Equal(t, token.ExpiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestTokenExpired(t *testing.T) {
	tm := newTestTokenManager(time.Hour)

	token, err := tm.Issue(uuid.New(), "aluno@example.com")
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Date(2026, 3, 1, 13, 0, 1, 0, time.UTC) }
	_, err = tm.Verify(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := newTestTokenManager(time.Hour)
	verifier := newTestTokenManager(time.Hour)
	verifier.secret = []byte("another-secret")

	token, err := issuer.Issue(uuid.New(), "aluno@example.com")
	require.NoError(t, err)

	_, err = verifier.Verify(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsUnsignedAlgorithm(t *testing.T) {
	tm := newTestTokenManager(time.Hour)

	claims := jwt.RegisteredClaims{
		Issuer:    "aprovado",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(tm.now().Add(time.Hour)),
		ID:        uuid.NewString(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenMalformed(t *testing.T) {
	tm := newTestTokenManager(time.Hour)

	_, err := tm.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
