package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubRepo struct {
	users    map[string]*User
	sessions map[string]uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:    make(map[string]*User),
		sessions: make(map[string]uuid.UUID),
	}
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}

func (r *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *stubRepo) CreateSession(_ context.Context, id string, userID uuid.UUID, _ time.Time, _, _ string) error {
	r.sessions[id] = userID
	return nil
}

func (r *stubRepo) DeleteSession(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func seedUser(t *testing.T, repo *stubRepo, email, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Aluno Teste",
		PasswordHash: string(hash),
		IsActive:     active,
	}
	repo.users[email] = user
	return user
}

func newTestService(repo *stubRepo) *Service {
	return NewService(repo, NewTokenManager("test-secret", time.Hour))
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "aluno@example.com", "senha-correta", true)
	svc := newTestService(repo)

	_, err := svc.Authenticate(context.Background(), "aluno@example.com", "senha-errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := newTestService(newStubRepo())

	_, err := svc.Authenticate(context.Background(), "ninguem@example.com", "qualquer")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "aluno@example.com", "senha-correta", false)
	svc := newTestService(repo)

	_, err := svc.Authenticate(context.Background(), "aluno@example.com", "senha-correta")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginIssuesTokenAndRecordsSession(t *testing.T) {
	repo := newStubRepo()
	seeded := seedUser(t, repo, "aluno@example.com", "senha-correta", true)
	svc := newTestService(repo)

	user, token, err := svc.Login(context.Background(), "aluno@example.com", "senha-correta", "10.0.0.1", "go-test")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	require.NotEmpty(t, token.Value)
	require.NotEmpty(t, token.SessionID)
	assert.Equal(t, seeded.ID, repo.sessions[token.SessionID])

	principal, err := svc.VerifyToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, principal.ID)
}

func TestLogoutDeletesSession(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "aluno@example.com", "senha-correta", true)
	svc := newTestService(repo)

	_, token, err := svc.Login(context.Background(), "aluno@example.com", "senha-correta", "", "")
	require.NoError(t, err)
	require.Contains(t, repo.sessions, token.SessionID)

	require.NoError(t, svc.Logout(context.Background(), token.Value))
	assert.NotContains(t, repo.sessions, token.SessionID)
}

func TestLogoutInvalidTokenIsNoop(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "aluno@example.com", "senha-correta", true)
	svc := newTestService(repo)

	_, token, err := svc.Login(context.Background(), "aluno@example.com", "senha-correta", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "garbage"))
	assert.Contains(t, repo.sessions, token.SessionID)
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newStubRepo()
	seeded := seedUser(t, repo, "aluno@example.com", "senha-correta", true)
	svc := newTestService(repo)

	_, old, err := svc.Login(context.Background(), "aluno@example.com", "senha-correta", "", "")
	require.NoError(t, err)

	user, fresh, err := svc.Refresh(context.Background(), old.Value, "10.0.0.1", "go-test")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.NotEqual(t, old.SessionID, fresh.SessionID)
	assert.NotContains(t, repo.sessions, old.SessionID, "the replaced session must be revoked")
	assert.Equal(t, seeded.ID, repo.sessions[fresh.SessionID])

	principal, err := svc.VerifyToken(fresh.Value)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, principal.ID)
}

func TestRefreshInvalidToken(t *testing.T) {
	repo := newStubRepo()
	seedUser(t, repo, "aluno@example.com", "senha-correta", true)
	svc := newTestService(repo)

	_, _, err := svc.Refresh(context.Background(), "garbage", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshInactiveAccount(t *testing.T) {
	repo := newStubRepo()
	user := seedUser(t, repo, "aluno@example.com", "senha-correta", true)
	svc := newTestService(repo)

	_, token, err := svc.Login(context.Background(), "aluno@example.com", "senha-correta", "", "")
	require.NoError(t, err)

	user.IsActive = false
	_, _, err = svc.Refresh(context.Background(), token.Value, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
