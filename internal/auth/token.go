package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every way a bearer token can fail verification:
// bad signature, expired, malformed, or an unparsable subject.
var ErrInvalidToken = errors.New("auth: invalid token")

// Token is a signed bearer credential together with its metadata.
type Token struct {
	Value     string
	SessionID string
	ExpiresAt time.Time
}

// TokenClaims are the verified contents of a bearer token.
type TokenClaims struct {
	UserID    uuid.UUID
	SessionID string
	ExpiresAt time.Time
}

// TokenManager signs and verifies bearer tokens (HS256). The JWT ID claim
// doubles as the session identifier so logout can revoke the audit record.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: "aprovado",
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the given user.
func (tm *TokenManager) Issue(userID uuid.UUID, email string) (Token, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	sessionID := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Issuer:    tm.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{email},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        sessionID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return Token{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Token{Value: signed, SessionID: sessionID, ExpiresAt: expiresAt}, nil
}

// Verify validates a bearer token and returns its claims.
func (tm *TokenManager) Verify(tokenString string) (TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	token, err := parser.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return TokenClaims{}, ErrInvalidToken
	}
	out := TokenClaims{UserID: userID, SessionID: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
