// Package guard makes the allow/deny/loading decision for every gated
// route. Decisions are computed by a pure function so the redirect ordering
// can be tested exhaustively; the middleware only executes them.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/aprovado-edu/aprovado/internal/admin"
	"github.com/aprovado-edu/aprovado/internal/auth"
)

// Well-known navigation targets.
const (
	PathLogin        = "/login"
	PathDashboard    = "/dashboard"
	PathUnauthorized = "/unauthorized"
)

// Input is everything a routing decision depends on.
type Input struct {
	RequiresAuth  bool
	RequiresAdmin bool
	AuthRoute     bool // login/register style pages that logged-in users leave

	HasUser      bool
	AuthLoading  bool
	AdminStatus  admin.Status
	AdminLoading bool

	Path string
}

// Action is what the router should do with the request.
type Action int

const (
	ActionRender Action = iota
	ActionLoading
	ActionRedirect
)

// Decision is the outcome of evaluating an Input.
type Decision struct {
	Action Action
	Target string
}

// Decide evaluates the access rules in a fixed order: loading states first,
// then authentication, then administrator status. The admin check is never
// consulted before authentication is confirmed, and no redirect is issued
// while either check is still resolving.
func Decide(in Input) Decision {
	if in.AuthLoading || (in.RequiresAdmin && in.AdminLoading) {
		return Decision{Action: ActionLoading}
	}

	if !in.RequiresAuth {
		if in.HasUser && in.AuthRoute {
			return Decision{Action: ActionRedirect, Target: PathDashboard}
		}
		return Decision{Action: ActionRender}
	}

	if !in.HasUser {
		return Decision{Action: ActionRedirect, Target: loginTarget(in.Path)}
	}

	if in.RequiresAdmin && !in.AdminStatus.IsAdmin() {
		return Decision{Action: ActionRedirect, Target: PathUnauthorized}
	}

	return Decision{Action: ActionRender}
}

// loginTarget preserves the attempted location for post-login return.
func loginTarget(path string) string {
	if path == "" || path == PathLogin {
		return PathLogin
	}
	return PathLogin + "?next=" + url.QueryEscape(path)
}

// AdminChecker resolves a user's admin status synchronously for a request.
type AdminChecker interface {
	Check(ctx context.Context, userID uuid.UUID, token string) admin.Status
}

// Guard wires the decision function into request middleware.
type Guard struct {
	Checker AdminChecker
	Logger  *slog.Logger
}

// RequireAuth gates a route behind authentication.
func (g Guard) RequireAuth(next http.Handler) http.Handler {
	return g.protect(next, false)
}

// RequireAdmin gates a route behind authentication plus admin status.
func (g Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.protect(next, true)
}

// PublicOnly redirects authenticated users away from auth-only pages.
func (g Guard) PublicOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		decision := Decide(Input{
			AuthRoute: true,
			HasUser:   principal != nil,
			Path:      r.URL.Path,
		})
		g.execute(w, r, next, decision)
	})
}

func (g Guard) protect(next http.Handler, requiresAdmin bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())

		in := Input{
			RequiresAuth:  true,
			RequiresAdmin: requiresAdmin,
			HasUser:       principal != nil,
			Path:          r.URL.Path,
		}
		if requiresAdmin && principal != nil {
			// The checker resolves synchronously here, so the decision
			// never sees an in-flight admin check. Errors inside the
			// checker already resolve to not-admin.
			in.AdminStatus = g.Checker.Check(r.Context(), principal.ID, auth.BearerToken(r))
		}

		g.execute(w, r, next, Decide(in))
	})
}

func (g Guard) execute(w http.ResponseWriter, r *http.Request, next http.Handler, decision Decision) {
	switch decision.Action {
	case ActionRedirect:
		http.Redirect(w, r, decision.Target, http.StatusSeeOther)
	case ActionLoading:
		// Middleware never produces this: both checks resolve in-request.
		w.Header().Set("Retry-After", "1")
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		next.ServeHTTP(w, r)
	}
}
