package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/studyhub/portal/internal/api/response"
	"github.com/studyhub/portal/internal/api/validation"
	"github.com/studyhub/portal/internal/asset"
)

// multipartMemory is how much of a form is buffered in memory before
// file parts spill to disk.
const multipartMemory = 8 << 20

// uploadForm is a parsed multipart form with its optional file part.
type uploadForm struct {
	form   *multipart.Form
	file   multipart.File
	header *multipart.FileHeader
}

// value returns the trimmed first value of a form field.
func (u *uploadForm) value(name string) string {
	if vs := u.form.Value[name]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

func (u *uploadForm) fileRequest() validation.FileRequest {
	if u.header == nil {
		return validation.FileRequest{}
	}
	return validation.FileRequest{
		Present:     true,
		Name:        u.header.Filename,
		ContentType: u.header.Header.Get("Content-Type"),
		Size:        u.header.Size,
	}
}

// assetFile returns the file part as an asset.File, or nil when the form
// carried none.
func (u *uploadForm) assetFile() *asset.File {
	if u.header == nil {
		return nil
	}
	return &asset.File{
		Name:        u.header.Filename,
		ContentType: validation.PDFContentType,
		Size:        u.header.Size,
		Body:        u.file,
	}
}

func (u *uploadForm) close() {
	if u.file != nil {
		_ = u.file.Close()
	}
	if u.form != nil {
		_ = u.form.RemoveAll()
	}
}

// parseUpload reads a multipart form of at most maxBytes. It writes the
// error response itself and returns nil when the body is unusable.
func parseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64, requestID string) *uploadForm {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Err(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				"Upload exceeds "+strconv.FormatInt(maxBytes, 10)+" bytes", requestID)
			return nil
		}
		response.Err(w, http.StatusBadRequest, "INVALID_FORM", "Request body must be multipart/form-data", requestID)
		return nil
	}

	u := &uploadForm{form: r.MultipartForm}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		u.file, u.header = file, header
	case errors.Is(err, http.ErrMissingFile):
	default:
		u.close()
		response.Err(w, http.StatusBadRequest, "INVALID_FORM", "Could not read file part", requestID)
		return nil
	}
	return u
}

// writeAssetError maps workflow errors onto the response envelope. Workflow
// messages name the failed step and are returned to the admin verbatim.
func writeAssetError(w http.ResponseWriter, err error, kind, op, requestID string) {
	switch {
	case errors.Is(err, asset.ErrInconsistent):
		slog.Error("asset left inconsistent", "kind", kind, "op", op, "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INCONSISTENT_STATE", err.Error(), requestID)
	case errors.Is(err, asset.ErrNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", err.Error(), requestID)
	case errors.Is(err, asset.ErrUpstream):
		slog.Error("asset operation failed", "kind", kind, "op", op, "error", err, "requestId", requestID)
		response.Err(w, http.StatusBadGateway, "UPSTREAM_FAILURE", err.Error(), requestID)
	default:
		slog.Error("asset operation failed", "kind", kind, "op", op, "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op+" "+kind, requestID)
	}
}

// pagination reads page and limit query parameters. Invalid values fall
// back to the defaults.
func pagination(r *http.Request, defaultLimit int) (page, limit int) {
	page, limit = 1, defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, 100)
	}
	return page, limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
