package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/studyhub/portal/internal/auth"
	"github.com/studyhub/portal/internal/gate"
	"github.com/studyhub/portal/internal/identity"
	"github.com/studyhub/portal/internal/metrics"
)

// SessionResolver resolves the caller's session from request cookies.
type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*identity.Session, error)
}

// Gate is middleware that resolves the caller, applies policy and either
// redirects or passes the request on with an auth.Principal in its context.
// Rotated session cookies are written before the decision is applied, so
// they also reach the browser on redirects.
func Gate(resolver SessionResolver, roles auth.RoleReader, policy gate.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var caller *auth.Identity

			session, err := resolver.Resolve(r.Context(), r)
			if err != nil {
				slog.Warn("session resolution failed; treating caller as anonymous",
					"error", err, "path", r.URL.Path, "requestId", GetRequestID(r.Context()))
			}
			if session != nil {
				for _, c := range session.Cookies {
					http.SetCookie(w, c)
				}
				if err == nil {
					caller = session.Identity
				}
			}

			decision, role := policy.Decide(r.Context(), r.URL.Path, caller, roles.GetRole)
			metrics.GateDecisions.WithLabelValues(decision.Outcome.String()).Inc()

			if decision.Outcome != gate.Allow {
				http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), &auth.Principal{Identity: caller, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
