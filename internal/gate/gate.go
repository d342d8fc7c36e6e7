// Package gate decides whether a request may reach page logic before any
// handler runs. Decide is a pure function of the path, the resolved
// identity and at most one role lookup.
package gate

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/studyhub/portal/internal/auth"
)

// Outcome is the result of an access decision.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectFallback
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectFallback:
		return "redirect_fallback"
	default:
		return "unknown"
	}
}

// Decision carries the outcome and, for redirects, the target location.
type Decision struct {
	Outcome  Outcome
	Location string
}

// RoleLookup resolves the role of an identity.
type RoleLookup func(ctx context.Context, id uuid.UUID) (auth.Role, error)

// Policy describes which paths are gated and where denied callers go.
type Policy struct {
	AdminPrefix       string
	ProtectedPrefixes []string
	LoginPath         string
	FallbackPath      string
	ReturnParam       string
}

// DefaultPolicy returns the portal's route policy.
func DefaultPolicy() Policy {
	return Policy{
		AdminPrefix:       "/admin",
		ProtectedPrefixes: []string{"/dashboard", "/profile"},
		LoginPath:         "/login",
		FallbackPath:      "/dashboard",
		ReturnParam:       "redirectTo",
	}
}

// Decide evaluates the policy for path. The admin prefix is checked before
// the protected prefixes, and lookup is called only for admin paths with a
// resolved identity. The returned role is zero when no lookup happened.
func (p Policy) Decide(ctx context.Context, path string, identity *auth.Identity, lookup RoleLookup) (Decision, auth.Role) {
	if matchPrefix(path, p.AdminPrefix) {
		if identity == nil {
			return p.login(path), 0
		}

		role, err := lookup(ctx, identity.ID)
		if err != nil {
			slog.Warn("role lookup failed; denying admin access", "user", identity.ID, "path", path, "error", err)
			return Decision{Outcome: RedirectFallback, Location: p.FallbackPath}, 0
		}

		switch role {
		case auth.RoleAdmin:
			return Decision{Outcome: Allow}, role
		case auth.RoleUser:
			return Decision{Outcome: RedirectFallback, Location: p.FallbackPath}, role
		default:
			return Decision{Outcome: RedirectFallback, Location: p.FallbackPath}, 0
		}
	}

	for _, prefix := range p.ProtectedPrefixes {
		if matchPrefix(path, prefix) {
			if identity == nil {
				return p.login(path), 0
			}
			return Decision{Outcome: Allow}, 0
		}
	}

	return Decision{Outcome: Allow}, 0
}

func (p Policy) login(path string) Decision {
	q := url.Values{}
	q.Set(p.ReturnParam, path)
	return Decision{Outcome: RedirectLogin, Location: p.LoginPath + "?" + q.Encode()}
}

// matchPrefix reports whether path is prefix itself or one of its sub-paths.
func matchPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	prefix = strings.TrimRight(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
