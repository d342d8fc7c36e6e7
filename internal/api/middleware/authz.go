package middleware

import (
	"errors"
	"net/http"

	"github.com/studyhub/portal/internal/api/response"
	"github.com/studyhub/portal/internal/auth"
)

// RequireAdmin returns middleware that rejects principals without the admin
// role. It relies on the role resolved by Gate and performs no lookup.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			err := auth.AssertAdmin(auth.PrincipalFrom(r.Context()))
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, auth.ErrUnauthorized):
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", requestID)
			default:
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Admin access required", requestID)
			}
		})
	}
}

// RequireIdentity returns middleware that rejects anonymous principals.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.PrincipalFrom(r.Context()).Authenticated() {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
