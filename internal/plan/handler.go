package plan

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aprovado-edu/aprovado/internal/auth"
	"github.com/aprovado-edu/aprovado/internal/platform/httpx"
)

// Handler exposes study-plan endpoints. Routes are mounted behind the
// authentication guard, so a principal is always present.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers plan routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleLatest)
	r.Post("/generate", h.handleGenerate)
}

type blockView struct {
	SubjectID int64  `json:"subjectId"`
	Subject   string `json:"subject"`
	Week      int    `json:"week"`
	Hours     int    `json:"hours"`
	Priority  int    `json:"priority"`
}

type planView struct {
	ID          string      `json:"id"`
	Weeks       int         `json:"weeks"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Blocks      []blockView `json:"blocks"`
}

func toView(p *Plan) planView {
	view := planView{
		ID:          p.ID.String(),
		Weeks:       p.Weeks,
		GeneratedAt: p.GeneratedAt,
		Blocks:      make([]blockView, 0, len(p.Blocks)),
	}
	for _, b := range p.Blocks {
		view.Blocks = append(view.Blocks, blockView{
			SubjectID: b.SubjectID,
			Subject:   b.Subject,
			Week:      b.Week,
			Hours:     b.Hours,
			Priority:  b.Priority,
		})
	}
	return view
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	p, err := h.service.Latest(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("latest plan", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, toView(p))
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	p, err := h.service.Generate(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, ErrNoDiagnostic) {
			httpx.Problem(w, http.StatusConflict, "Diagnostic Missing", "answer the diagnostic questionnaire before generating a plan")
			return
		}
		h.logger.Error("generate plan", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(p))
}
