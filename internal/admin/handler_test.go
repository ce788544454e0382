package admin_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aprovado-edu/aprovado/internal/admin"
	"github.com/aprovado-edu/aprovado/internal/auth"
)

type stubTokens struct {
	userID uuid.UUID
	err    error
}

func (s stubTokens) VerifyToken(token string) (auth.Principal, error) {
	if s.err != nil {
		return auth.Principal{}, s.err
	}
	return auth.Principal{ID: s.userID}, nil
}

type stubRepo struct {
	isAdmin bool
	err     error
	panics  bool
}

func (s stubRepo) IsAdministrator(ctx context.Context, userID uuid.UUID) (bool, error) {
	if s.panics {
		panic("administrators table gone")
	}
	return s.isAdmin, s.err
}

type verifyBody struct {
	IsAdmin bool   `json:"isAdmin"`
	Error   string `json:"error"`
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveAdminCheck(outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func newVerifyRouter(t *testing.T, tokens admin.TokenVerifier, repo admin.Repository) http.Handler {
	t.Helper()
	return newObservedVerifyRouter(t, tokens, repo, nil)
}

func newObservedVerifyRouter(t *testing.T, tokens admin.TokenVerifier, repo admin.Repository, checks admin.CheckObserver) http.Handler {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	handler := admin.NewHandler(logger, tokens, admin.NewService(repo, logger), checks)
	r := chi.NewRouter()
	r.Route("/api/verify-admin", handler.MountRoutes)
	return r
}

func doVerify(t *testing.T, router http.Handler, method, token string) (int, verifyBody) {
	t.Helper()
	req := httptest.NewRequest(method, "/api/verify-admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	var body verifyBody
	if res.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	}
	return res.Code, body
}

func TestVerifyMissingToken(t *testing.T) {
	router := newVerifyRouter(t, stubTokens{userID: uuid.New()}, stubRepo{isAdmin: true})

	code, body := doVerify(t, router, http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, body.IsAdmin)
	assert.Equal(t, "Unauthorized", body.Error)
}

func TestVerifyInvalidToken(t *testing.T) {
	router := newVerifyRouter(t, stubTokens{err: auth.ErrInvalidToken}, stubRepo{isAdmin: true})

	code, body := doVerify(t, router, http.MethodGet, "garbage")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, body.IsAdmin)
}

func TestVerifyNotAdmin(t *testing.T) {
	router := newVerifyRouter(t, stubTokens{userID: uuid.New()}, stubRepo{isAdmin: false})

	code, body := doVerify(t, router, http.MethodPost, "valid")
	assert.Equal(t, http.StatusOK, code, "absence from the relation is not an error")
	assert.False(t, body.IsAdmin)
	assert.Empty(t, body.Error)
}

func TestVerifyAdmin(t *testing.T) {
	router := newVerifyRouter(t, stubTokens{userID: uuid.New()}, stubRepo{isAdmin: true})

	code, body := doVerify(t, router, http.MethodGet, "valid")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, body.IsAdmin)
}

func TestVerifyDatabaseErrorFailsSecure(t *testing.T) {
	router := newVerifyRouter(t, stubTokens{userID: uuid.New()}, stubRepo{err: errors.New("connection refused")})

	code, body := doVerify(t, router, http.MethodGet, "valid")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, body.IsAdmin, "a lookup error must never resolve to admin")
}

func TestVerifyPanicFailsSecure(t *testing.T) {
	router := newVerifyRouter(t, stubTokens{userID: uuid.New()}, stubRepo{panics: true})

	code, body := doVerify(t, router, http.MethodGet, "valid")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, body.IsAdmin)
	assert.Equal(t, "Internal server error", body.Error)
}

func TestVerifyMethodNotAllowed(t *testing.T) {
	router := newVerifyRouter(t, stubTokens{userID: uuid.New()}, stubRepo{isAdmin: true})

	code, body := doVerify(t, router, http.MethodDelete, "valid")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.NotEmpty(t, body.Error)
	assert.False(t, body.IsAdmin)
}

func TestVerifyCountsOutcomes(t *testing.T) {
	observer := &recordingObserver{}
	router := newObservedVerifyRouter(t, stubTokens{userID: uuid.New()}, stubRepo{isAdmin: true}, observer)

	doVerify(t, router, http.MethodGet, "valid")
	doVerify(t, router, http.MethodGet, "")
	assert.Equal(t, []string{"admin", "unauthorized"}, observer.outcomes)

	observer.outcomes = nil
	denied := newObservedVerifyRouter(t, stubTokens{userID: uuid.New()}, stubRepo{isAdmin: false}, observer)
	doVerify(t, denied, http.MethodGet, "valid")
	assert.Equal(t, []string{"not_admin"}, observer.outcomes)
}
