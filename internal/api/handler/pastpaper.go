package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/studyhub/portal/internal/api/middleware"
	"github.com/studyhub/portal/internal/api/response"
	"github.com/studyhub/portal/internal/api/validation"
	"github.com/studyhub/portal/internal/asset"
	"github.com/studyhub/portal/internal/pastpaper"
)

type pastPaperResponse struct {
	ID         string  `json:"id"`
	Subject    string  `json:"subject"`
	Year       int     `json:"year"`
	Board      string  `json:"board"`
	ClassLevel string  `json:"classLevel"`
	ExamShift  string  `json:"examShift"`
	IsSolved   bool    `json:"isSolved"`
	FileURL    *string `json:"fileUrl"`
	CreatedAt  string  `json:"createdAt"`
}

func toPastPaperResponse(p *pastpaper.PastPaper) pastPaperResponse {
	return pastPaperResponse{
		ID:         p.ID.String(),
		Subject:    p.Subject,
		Year:       p.Year,
		Board:      p.Board,
		ClassLevel: p.ClassLevel,
		ExamShift:  p.ExamShift,
		IsSolved:   p.IsSolved,
		FileURL:    p.FileURL,
		CreatedAt:  formatTime(p.CreatedAt),
	}
}

// PastPaperHandler handles past paper browsing and admin management.
type PastPaperHandler struct {
	repo      pastpaper.Repository
	workflow  *asset.Workflow[*pastpaper.PastPaper]
	maxUpload int64
}

// NewPastPaperHandler creates a new PastPaperHandler.
func NewPastPaperHandler(repo pastpaper.Repository, workflow *asset.Workflow[*pastpaper.PastPaper], maxUpload int64) *PastPaperHandler {
	return &PastPaperHandler{repo: repo, workflow: workflow, maxUpload: maxUpload}
}

// List handles GET /pastpapers and GET /admin/pastpapers.
func (h *PastPaperHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	q := r.URL.Query()
	page, limit := pagination(r, 20)
	filter := pastpaper.ListFilter{Page: page, Limit: limit}
	if v := q.Get("q"); v != "" {
		filter.Query = &v
	}
	if v := q.Get("board"); v != "" {
		filter.Board = &v
	}
	if v := q.Get("class_level"); v != "" {
		filter.ClassLevel = &v
	}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "year", Message: "year must be an integer"}}, requestID)
			return
		}
		filter.Year = &year
	}

	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list past papers", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list past papers", requestID)
		return
	}

	items := make([]pastPaperResponse, 0, len(result.PastPapers))
	for i := range result.PastPapers {
		items = append(items, toPastPaperResponse(&result.PastPapers[i]))
	}
	response.SuccessList(w, items, result.Total, result.Page, result.Limit, requestID)
}

// Get handles GET /pastpapers/{id} and GET /admin/pastpapers/{id}.
func (h *PastPaperHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pastpaper.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Past paper not found", requestID)
			return
		}
		slog.Error("failed to get past paper", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get past paper", requestID)
		return
	}

	response.Success(w, http.StatusOK, toPastPaperResponse(p), requestID)
}

// Create handles POST /admin/pastpapers.
func (h *PastPaperHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	form := parseUpload(w, r, h.maxUpload, requestID)
	if form == nil {
		return
	}
	defer form.close()

	p, fieldErrors := pastPaperFromForm(form)
	fieldErrors = append(fieldErrors, validation.ValidateFile(form.fileRequest(), true)...)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.workflow.Create(r.Context(), p, *form.assetFile()); err != nil {
		writeAssetError(w, err, "past paper", "create", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toPastPaperResponse(p), requestID)
}

// Update handles PUT /admin/pastpapers/{id}. A file part replaces the current file.
func (h *PastPaperHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	p, fieldErrors := pastPaperFromForm(form)
	fieldErrors = append(fieldErrors, validation.ValidateFile(form.fileRequest(), false)...)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}
	p.ID = id

	if err := h.workflow.Update(r.Context(), id, p, form.assetFile()); err != nil {
		writeAssetError(w, err, "past paper", "update", requestID)
		return
	}

	response.Success(w, http.StatusOK, toPastPaperResponse(p), requestID)
}

// Delete handles DELETE /admin/pastpapers/{id}.
func (h *PastPaperHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.workflow.Delete(r.Context(), id); err != nil {
		writeAssetError(w, err, "past paper", "delete", requestID)
		return
	}

	response.NoContent(w)
}

func pastPaperFromForm(form *uploadForm) (*pastpaper.PastPaper, []validation.FieldError) {
	req := validation.PastPaperRequest{
		Subject:    form.value("subject"),
		Year:       form.value("year"),
		Board:      form.value("board"),
		ClassLevel: form.value("class_level"),
		ExamShift:  form.value("exam_shift"),
		IsSolved:   form.value("is_solved"),
	}
	fieldErrors := validation.ValidatePastPaperRequest(req)

	p := &pastpaper.PastPaper{
		Subject:    req.Subject,
		Board:      req.Board,
		ClassLevel: req.ClassLevel,
		ExamShift:  req.ExamShift,
	}
	p.Year, _ = strconv.Atoi(req.Year)
	p.IsSolved, _ = validation.ParseCheckbox(req.IsSolved)
	return p, fieldErrors
}
