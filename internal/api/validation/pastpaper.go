package validation

import (
	"strconv"
	"strings"
)

const (
	minYear = 1900
	maxYear = 2100
)

// PastPaperRequest mirrors the metadata fields of a past paper form. Year and
// IsSolved arrive as raw form values.
type PastPaperRequest struct {
	Subject    string
	Year       string
	Board      string
	ClassLevel string
	ExamShift  string
	IsSolved   string
}

// ValidatePastPaperRequest validates past paper metadata.
func ValidatePastPaperRequest(req PastPaperRequest) []FieldError {
	var errs []FieldError
	errs = requireText(errs, "subject", req.Subject)
	errs = requireText(errs, "board", req.Board)
	errs = requireText(errs, "class_level", req.ClassLevel)
	errs = requireText(errs, "exam_shift", req.ExamShift)

	year := strings.TrimSpace(req.Year)
	if year == "" {
		errs = append(errs, FieldError{Field: "year", Message: "year is required"})
	} else if n, err := strconv.Atoi(year); err != nil {
		errs = append(errs, FieldError{Field: "year", Message: "year must be an integer"})
	} else if n < minYear || n > maxYear {
		errs = append(errs, FieldError{Field: "year", Message: "year must be between 1900 and 2100"})
	}

	if req.IsSolved != "" {
		if _, err := ParseCheckbox(req.IsSolved); err != nil {
			errs = append(errs, FieldError{Field: "is_solved", Message: "is_solved must be true or false"})
		}
	}

	return errs
}

// ParseCheckbox parses a form checkbox value. Browsers send "on" for a
// checked box and omit the field otherwise.
func ParseCheckbox(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "off":
		return false, nil
	case "on":
		return true, nil
	}
	return strconv.ParseBool(v)
}
