package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/studyhub/portal/internal/api/middleware"
	"github.com/studyhub/portal/internal/api/response"
	"github.com/studyhub/portal/internal/api/validation"
	"github.com/studyhub/portal/internal/auth"
)

type profileResponse struct {
	ID      string        `json:"id"`
	Email   string        `json:"email"`
	Profile *userResponse `json:"profile"`
}

// ProfileHandler serves the signed-in user's own pages.
type ProfileHandler struct {
	svc *auth.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *auth.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// ServeHTTP handles GET /dashboard, /dashboard/profile and /profile. A
// signed-in identity without a users row gets a null profile.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	principal := auth.PrincipalFrom(r.Context())

	u, err := h.svc.Profile(r.Context(), principal)
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", requestID)
		return
	case err != nil && !errors.Is(err, auth.ErrUserNotFound):
		slog.Error("failed to load profile", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile", requestID)
		return
	}

	data := profileResponse{
		ID:    principal.Identity.ID.String(),
		Email: principal.Identity.Email,
	}
	if u != nil {
		ur := toUserResponse(u)
		data.Profile = &ur
	}
	response.Success(w, http.StatusOK, data, requestID)
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
}

// Update handles PATCH /dashboard/profile. Callers edit only their own row.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	principal := auth.PrincipalFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}
	if fieldErrors := validation.ValidateFullName(req.FullName); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), principal, req.FullName)
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", requestID)
		return
	case errors.Is(err, auth.ErrUserNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Profile not found", requestID)
		return
	case err != nil:
		slog.Error("failed to update profile", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile", requestID)
		return
	}

	ur := toUserResponse(u)
	response.Success(w, http.StatusOK, profileResponse{
		ID:      principal.Identity.ID.String(),
		Email:   principal.Identity.Email,
		Profile: &ur,
	}, requestID)
}
