package validation

import (
	"mime"
	"strings"
)

// PDFContentType is the only content type accepted for uploads.
const PDFContentType = "application/pdf"

// FileRequest describes the file part of an upload form. Present is false
// when the form carried no file part.
type FileRequest struct {
	Present     bool
	Name        string
	ContentType string
	Size        int64
}

// ValidateFile validates an uploaded file. required is true for create and
// false for update, where omitting the file keeps the current one.
func ValidateFile(req FileRequest, required bool) []FieldError {
	if !req.Present {
		if required {
			return []FieldError{{Field: "file", Message: "file is required"}}
		}
		return nil
	}

	var errs []FieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Field: "file", Message: "file must have a name"})
	}
	if req.Size <= 0 {
		errs = append(errs, FieldError{Field: "file", Message: "file must not be empty"})
	}
	mediaType, _, err := mime.ParseMediaType(req.ContentType)
	if err != nil || mediaType != PDFContentType {
		errs = append(errs, FieldError{Field: "file", Message: "file must be a PDF"})
	}
	return errs
}
