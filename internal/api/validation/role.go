package validation

import "github.com/studyhub/portal/internal/auth"

// ValidateRole validates a requested role name.
func ValidateRole(role string) []FieldError {
	if role == "" {
		return []FieldError{{Field: "role", Message: "role is required"}}
	}
	if _, err := auth.ParseRole(role); err != nil {
		return []FieldError{{Field: "role", Message: "role must be \"user\" or \"admin\""}}
	}
	return nil
}
