package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any credential failure without
// distinguishing unknown accounts from wrong passwords.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token, recording the session
// in postgres for auditing.
func (s *Service) Login(ctx context.Context, email, password, ip, ua string) (*User, Token, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, Token{}, err
	}
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, Token{}, err
	}
	if err := s.repo.CreateSession(ctx, token.SessionID, user.ID, token.ExpiresAt, ip, ua); err != nil {
		return nil, Token{}, err
	}
	return user, token, nil
}

// Refresh exchanges a still-valid token for a fresh one. The session row is
// rotated: the new token gets its own record before the old one is removed,
// so the old credential cannot be renewed again.
func (s *Service) Refresh(ctx context.Context, tokenString, ip, ua string) (*User, Token, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, Token{}, ErrInvalidCredentials
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, Token{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, Token{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, Token{}, err
	}
	if err := s.repo.CreateSession(ctx, token.SessionID, user.ID, token.ExpiresAt, ip, ua); err != nil {
		return nil, Token{}, err
	}
	if err := s.repo.DeleteSession(ctx, claims.SessionID); err != nil {
		return nil, Token{}, err
	}
	return user, token, nil
}

// Logout deletes the session record the token was issued with. An invalid
// token is not an error here: there is nothing left to revoke.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil
	}
	return s.repo.DeleteSession(ctx, claims.SessionID)
}

// VerifyToken resolves a bearer token to the principal it was issued for.
func (s *Service) VerifyToken(token string) (Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Principal{}, err
	}
	return Principal{ID: claims.UserID}, nil
}
