package simulado

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aprovado-edu/aprovado/internal/auth"
	"github.com/aprovado-edu/aprovado/internal/platform/httpx"
)

// Handler exposes simulado endpoints. Mounted behind the auth guard.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers simulado routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/attempts", h.handleHistory)
	r.Post("/{simuladoID}/done", h.handleDone)
}

type mistakeInput struct {
	SubjectID int64 `json:"subjectId" validate:"required"`
	Count     int   `json:"count" validate:"min=0"`
}

type doneRequest struct {
	Correct  int            `json:"correct" validate:"min=0"`
	Total    int            `json:"total" validate:"required,min=1"`
	Mistakes []mistakeInput `json:"mistakes" validate:"dive"`
}

type attemptView struct {
	ID          string    `json:"id"`
	SimuladoID  int64     `json:"simuladoId"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	CompletedAt time.Time `json:"completedAt"`
}

func (h *Handler) handleDone(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	simuladoID, err := strconv.ParseInt(chi.URLParam(r, "simuladoID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	var req doneRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	mistakes := make([]SubjectMistakes, 0, len(req.Mistakes))
	for _, m := range req.Mistakes {
		mistakes = append(mistakes, SubjectMistakes{SubjectID: m.SubjectID, Count: m.Count})
	}

	attempt, err := h.service.Complete(r.Context(), principal.ID, simuladoID, req.Correct, req.Total, mistakes)
	if err != nil {
		if errors.Is(err, ErrInvalidScore) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		h.logger.Error("complete simulado", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusCreated, attemptView{
		ID:          attempt.ID.String(),
		SimuladoID:  attempt.SimuladoID,
		Correct:     attempt.Correct,
		Total:       attempt.Total,
		CompletedAt: attempt.CompletedAt,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	attempts, err := h.service.History(r.Context(), principal.ID)
	if err != nil {
		h.logger.Error("list attempts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	views := make([]attemptView, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, attemptView{
			ID:          a.ID.String(),
			SimuladoID:  a.SimuladoID,
			Correct:     a.Correct,
			Total:       a.Total,
			CompletedAt: a.CompletedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}
