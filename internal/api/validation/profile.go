package validation

import (
	"fmt"
	"strings"
)

// ValidateFullName checks a display name. An empty name clears it.
func ValidateFullName(name string) []FieldError {
	if len(strings.TrimSpace(name)) > maxTextLen {
		return []FieldError{{Field: "fullName", Message: fmt.Sprintf("fullName must be at most %d characters", maxTextLen)}}
	}
	return nil
}
