package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/studyhub/portal/internal/api/middleware"
	"github.com/studyhub/portal/internal/api/response"
	"github.com/studyhub/portal/internal/api/validation"
	"github.com/studyhub/portal/internal/asset"
	"github.com/studyhub/portal/internal/book"
)

type bookResponse struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	ClassLevel string  `json:"classLevel"`
	Subject    string  `json:"subject"`
	Board      string  `json:"board"`
	FileURL    *string `json:"fileUrl"`
	CreatedAt  string  `json:"createdAt"`
}

func toBookResponse(b *book.Book) bookResponse {
	return bookResponse{
		ID:         b.ID.String(),
		Title:      b.Title,
		ClassLevel: b.ClassLevel,
		Subject:    b.Subject,
		Board:      b.Board,
		FileURL:    b.FileURL,
		CreatedAt:  formatTime(b.CreatedAt),
	}
}

// BookHandler handles book listing and admin book management.
type BookHandler struct {
	repo      book.Repository
	workflow  *asset.Workflow[*book.Book]
	maxUpload int64
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(repo book.Repository, workflow *asset.Workflow[*book.Book], maxUpload int64) *BookHandler {
	return &BookHandler{repo: repo, workflow: workflow, maxUpload: maxUpload}
}

// List handles GET /books and GET /admin/books.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	page, limit := pagination(r, 12)
	result, err := h.repo.List(r.Context(), book.ListFilter{Page: page, Limit: limit})
	if err != nil {
		slog.Error("failed to list books", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list books", requestID)
		return
	}

	items := make([]bookResponse, 0, len(result.Books))
	for i := range result.Books {
		items = append(items, toBookResponse(&result.Books[i]))
	}
	response.SuccessList(w, items, result.Total, result.Page, result.Limit, requestID)
}

// Get handles GET /admin/books/{id}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	b, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Book not found", requestID)
			return
		}
		slog.Error("failed to get book", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get book", requestID)
		return
	}

	response.Success(w, http.StatusOK, toBookResponse(b), requestID)
}

// Create handles POST /admin/books.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	form := parseUpload(w, r, h.maxUpload, requestID)
	if form == nil {
		return
	}
	defer form.close()

	b, fieldErrors := bookFromForm(form)
	fieldErrors = append(fieldErrors, validation.ValidateFile(form.fileRequest(), true)...)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.workflow.Create(r.Context(), b, *form.assetFile()); err != nil {
		writeAssetError(w, err, "book", "create", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toBookResponse(b), requestID)
}

// Update handles PUT /admin/books/{id}. A file part replaces the current file.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	form := parseUpload(w, r, h.maxUpload, requestID)
	if form == nil {
		return
	}
	defer form.close()

	b, fieldErrors := bookFromForm(form)
	fieldErrors = append(fieldErrors, validation.ValidateFile(form.fileRequest(), false)...)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}
	b.ID = id

	if err := h.workflow.Update(r.Context(), id, b, form.assetFile()); err != nil {
		writeAssetError(w, err, "book", "update", requestID)
		return
	}

	response.Success(w, http.StatusOK, toBookResponse(b), requestID)
}

// Delete handles DELETE /admin/books/{id}.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.workflow.Delete(r.Context(), id); err != nil {
		writeAssetError(w, err, "book", "delete", requestID)
		return
	}

	response.NoContent(w)
}

func bookFromForm(form *uploadForm) (*book.Book, []validation.FieldError) {
	req := validation.BookRequest{
		Title:      form.value("title"),
		ClassLevel: form.value("class_level"),
		Subject:    form.value("subject"),
		Board:      form.value("board"),
	}
	return &book.Book{
		Title:      req.Title,
		ClassLevel: req.ClassLevel,
		Subject:    req.Subject,
		Board:      req.Board,
	}, validation.ValidateBookRequest(req)
}

// parseID reads the {id} URL parameter, writing a 400 when it is not a UUID.
func parseID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return uuid.Nil, false
	}
	return id, true
}
