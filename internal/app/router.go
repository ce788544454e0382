package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aprovado-edu/aprovado/internal/admin"
	"github.com/aprovado-edu/aprovado/internal/auth"
	"github.com/aprovado-edu/aprovado/internal/cors"
	"github.com/aprovado-edu/aprovado/internal/guard"
	"github.com/aprovado-edu/aprovado/internal/observability"
	"github.com/aprovado-edu/aprovado/internal/plan"
	"github.com/aprovado-edu/aprovado/internal/ratelimit"
	"github.com/aprovado-edu/aprovado/internal/simulado"
	"github.com/aprovado-edu/aprovado/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	CORS            *cors.Policy
	AuthService     *auth.Service
	AuthHandler     *auth.Handler
	AdminHandler    *admin.Handler
	PlanHandler     *plan.Handler
	SimuladoHandler *simulado.Handler
	JobHandler      *jobs.Handler
	Guard           guard.Guard
	RateLimits      ratelimit.Store
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Aprovado defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		CORS:        params.CORS,
		AuthService: params.AuthService,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/auth", params.AuthHandler.MountRoutes)

	r.Route("/api/verify-admin", func(r chi.Router) {
		r.Use(ratelimit.Limit(
			params.RateLimits,
			params.Logger,
			"verify-admin",
			ratelimit.AdminCheckMax,
			ratelimit.AdminCheckWindow,
			keyByUserOrIP,
		))
		params.AdminHandler.MountRoutes(r)
	})

	r.Route("/api/plan", func(r chi.Router) {
		r.Use(params.Guard.RequireAuth)
		params.PlanHandler.MountRoutes(r)
	})

	r.Route("/api/simulados", func(r chi.Router) {
		r.Use(params.Guard.RequireAuth)
		params.SimuladoHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// keyByUserOrIP buckets authenticated callers by user id so one noisy user
// cannot exhaust the shared allowance of everyone behind the same NAT.
func keyByUserOrIP(r *http.Request) string {
	if principal := auth.PrincipalFromContext(r.Context()); principal != nil {
		return "user:" + principal.ID.String()
	}
	return "ip:" + ratelimit.KeyByIP(r)
}
