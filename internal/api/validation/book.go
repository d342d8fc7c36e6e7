package validation

// BookRequest mirrors the metadata fields of a book form.
type BookRequest struct {
	Title      string
	ClassLevel string
	Subject    string
	Board      string
}

// ValidateBookRequest validates book metadata.
func ValidateBookRequest(req BookRequest) []FieldError {
	var errs []FieldError
	errs = requireText(errs, "title", req.Title)
	errs = requireText(errs, "class_level", req.ClassLevel)
	errs = requireText(errs, "subject", req.Subject)
	errs = requireText(errs, "board", req.Board)
	return errs
}
