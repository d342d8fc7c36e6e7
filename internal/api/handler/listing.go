package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/studyhub/portal/internal/api/middleware"
	"github.com/studyhub/portal/internal/api/response"
	"github.com/studyhub/portal/internal/api/validation"
	"github.com/studyhub/portal/internal/listing"
)

// searchLimit caps hits per table on the search page.
const searchLimit = 6

// ListingHandler serves the file-less resource tables.
type ListingHandler struct {
	repo listing.Repository
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(repo listing.Repository) *ListingHandler {
	return &ListingHandler{repo: repo}
}

// List returns a public list handler for a fixed kind.
func (h *ListingHandler) List(kind listing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.list(w, r, kind, true)
	}
}

// Get returns a public detail handler for a fixed kind.
func (h *ListingHandler) Get(kind listing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())

		id, ok := parseID(w, r, requestID)
		if !ok {
			return
		}

		row, err := h.repo.Get(r.Context(), kind, id)
		if err != nil {
			h.writeError(w, err, kind, "get", requestID)
			return
		}
		response.Success(w, http.StatusOK, row, requestID)
	}
}

// Post handles GET /blog/{slug}. Only published posts are visible.
func (h *ListingHandler) Post(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	row, err := h.repo.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, err, listing.Posts, "get", requestID)
		return
	}
	response.Success(w, http.StatusOK, row, requestID)
}

// Search handles GET /search?q=.
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.Success(w, http.StatusOK, listing.SearchResult{}, requestID)
		return
	}

	result, err := h.repo.Search(r.Context(), q, searchLimit)
	if err != nil {
		slog.Error("search failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Search failed", requestID)
		return
	}
	response.Success(w, http.StatusOK, result, requestID)
}

// AdminList handles GET /admin/{kind}, including unpublished rows.
func (h *ListingHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	h.list(w, r, kind, false)
}

// AdminCreate handles POST /admin/{kind}.
func (h *ListingHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	values, ok := decodeListing(w, r, kind, requestID)
	if !ok {
		return
	}

	row, err := h.repo.Insert(r.Context(), kind, values)
	if err != nil {
		h.writeError(w, err, kind, "create", requestID)
		return
	}

	slog.Info("listing created", "kind", kind, "id", row["id"], "requestId", requestID)
	response.Success(w, http.StatusCreated, row, requestID)
}

// AdminUpdate handles PUT /admin/{kind}/{id}. Fields absent from the body
// keep their current value.
func (h *ListingHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}
	values, ok := decodeListing(w, r, kind, requestID)
	if !ok {
		return
	}

	row, err := h.repo.Update(r.Context(), kind, id, values)
	if err != nil {
		h.writeError(w, err, kind, "update", requestID)
		return
	}

	slog.Info("listing updated", "kind", kind, "id", id, "requestId", requestID)
	response.Success(w, http.StatusOK, row, requestID)
}

// AdminDelete handles DELETE /admin/{kind}/{id}.
func (h *ListingHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), kind, id); err != nil {
		h.writeError(w, err, kind, "delete", requestID)
		return
	}

	slog.Info("listing deleted", "kind", kind, "id", id, "requestId", requestID)
	response.NoContent(w)
}

func decodeListing(w http.ResponseWriter, r *http.Request, kind listing.Kind, requestID string) (listing.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON object", requestID)
		return nil, false
	}

	values, fieldErrors := validation.ValidateListing(kind, body)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return nil, false
	}
	return values, true
}

func (h *ListingHandler) list(w http.ResponseWriter, r *http.Request, kind listing.Kind, public bool) {
	requestID := middleware.GetRequestID(r.Context())

	page, limit := pagination(r, 20)
	result, err := h.repo.List(r.Context(), kind, listing.ListFilter{Public: public, Page: page, Limit: limit})
	if err != nil {
		h.writeError(w, err, kind, "list", requestID)
		return
	}
	response.SuccessList(w, result.Rows, result.Total, result.Page, result.Limit, requestID)
}

func (h *ListingHandler) kindParam(w http.ResponseWriter, r *http.Request) (listing.Kind, bool) {
	kind, ok := listing.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Unknown resource", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return kind, true
}

func (h *ListingHandler) writeError(w http.ResponseWriter, err error, kind listing.Kind, op, requestID string) {
	switch {
	case errors.Is(err, listing.ErrNotFound), errors.Is(err, listing.ErrUnknownKind):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Not found", requestID)
	case errors.Is(err, listing.ErrConflict):
		response.Err(w, http.StatusConflict, "CONFLICT", "Conflicts with an existing row in "+string(kind), requestID)
	default:
		slog.Error("listing operation failed", "kind", kind, "op", op, "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" "+string(kind), requestID)
	}
}
