package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aprovado-edu/aprovado/internal/auth"
)

// TokenVerifier resolves a bearer token to the principal it was issued for.
// Implemented by the auth service.
type TokenVerifier interface {
	VerifyToken(token string) (auth.Principal, error)
}

// CheckObserver counts verification outcomes. Satisfied by
// observability.Metrics; may be nil.
type CheckObserver interface {
	ObserveAdminCheck(outcome string)
}

// verifyResponse is the exact wire shape of the verification endpoint.
// isAdmin is present on every path, including errors, so a client that
// only reads isAdmin still lands on the deny side.
type verifyResponse struct {
	IsAdmin bool   `json:"isAdmin"`
	Error   string `json:"error,omitempty"`
}

// Handler serves the stateless admin verification endpoint.
type Handler struct {
	logger  *slog.Logger
	tokens  TokenVerifier
	service *Service
	checks  CheckObserver
}

// NewHandler constructs a Handler. checks may be nil.
func NewHandler(logger *slog.Logger, tokens TokenVerifier, service *Service, checks CheckObserver) *Handler {
	return &Handler{logger: logger, tokens: tokens, service: service, checks: checks}
}

func (h *Handler) observe(outcome string) {
	if h.checks != nil {
		h.checks.ObserveAdminCheck(outcome)
	}
}

// MountRoutes registers the verification endpoint. GET and POST are
// equivalent; every other method gets a 405 with a JSON body. OPTIONS is
// answered by the CORS middleware before this handler runs.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleVerify)
	r.Post("/", h.handleVerify)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("verify-admin panic", slog.Any("panic", rec))
			h.observe("error")
			writeJSON(w, http.StatusInternalServerError, verifyResponse{IsAdmin: false, Error: "Internal server error"})
		}
	}()

	token := auth.BearerToken(r)
	if token == "" {
		h.observe("unauthorized")
		writeJSON(w, http.StatusUnauthorized, verifyResponse{IsAdmin: false, Error: "Unauthorized"})
		return
	}
	principal, err := h.tokens.VerifyToken(token)
	if err != nil {
		h.observe("unauthorized")
		writeJSON(w, http.StatusUnauthorized, verifyResponse{IsAdmin: false, Error: "Unauthorized"})
		return
	}

	status := h.service.Check(r.Context(), principal.ID)
	if status.IsAdmin() {
		h.observe("admin")
	} else {
		h.observe("not_admin")
	}
	writeJSON(w, http.StatusOK, verifyResponse{IsAdmin: status.IsAdmin()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
