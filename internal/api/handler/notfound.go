package handler

import (
	"net/http"

	"github.com/studyhub/portal/internal/api/middleware"
	"github.com/studyhub/portal/internal/api/response"
)

// NotFound writes the envelope for an unrouted path.
func NotFound(w http.ResponseWriter, r *http.Request) {
	response.Err(w, http.StatusNotFound, "NOT_FOUND", "Route not found", middleware.GetRequestID(r.Context()))
}
