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

type setRoleRequest struct {
	Role string `json:"role"`
}

type userResponse struct {
	ID        string  `json:"id"`
	Email     *string `json:"email"`
	FullName  *string `json:"fullName"`
	AvatarURL *string `json:"avatarUrl"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"createdAt"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role.String(),
		CreatedAt: formatTime(u.CreatedAt),
	}
}

// UserHandler handles admin user management.
type UserHandler struct {
	svc *auth.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *auth.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// List handles GET /admin/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	users, err := h.svc.Users(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", requestID)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	response.SuccessList(w, items, len(items), 1, len(items), requestID)
}

// SetRole handles PATCH /admin/users/{id}/role.
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if fieldErrors := validation.ValidateRole(req.Role); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}
	role, _ := auth.ParseRole(req.Role)

	err := h.svc.SetRole(r.Context(), auth.PrincipalFrom(r.Context()), id, role)
	switch {
	case err == nil:
		response.Success(w, http.StatusOK, map[string]string{"id": id.String(), "role": role.String()}, requestID)
	case errors.Is(err, auth.ErrUnauthorized):
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", requestID)
	case errors.Is(err, auth.ErrForbidden):
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Admin access required", requestID)
	case errors.Is(err, auth.ErrUserNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
	default:
		slog.Error("failed to set role", "error", err, "id", id, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update role", requestID)
	}
}
