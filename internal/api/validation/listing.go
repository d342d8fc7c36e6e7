package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/studyhub/portal/internal/listing"
)

const dateLayout = "2006-01-02"

// ValidateListing checks a decoded JSON body against the writable columns
// of kind and converts it to typed values. Required columns must be present
// and non-empty; fields absent from body are left out of the result.
func ValidateListing(kind listing.Kind, body map[string]any) (listing.Values, []FieldError) {
	cols := listing.Columns(kind)
	known := make(map[string]listing.Column, len(cols))
	for _, c := range cols {
		known[c.Name] = c
	}

	var errs []FieldError
	var unknown []string
	for name := range body {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, FieldError{Field: name, Message: name + " is not a writable field"})
	}

	values := listing.Values{}
	for _, c := range cols {
		raw, present := body[c.Name]
		if !present {
			if c.Required {
				errs = append(errs, FieldError{Field: c.Name, Message: c.Name + " is required"})
			}
			continue
		}
		v, fe := convert(c, raw)
		if fe != nil {
			errs = append(errs, *fe)
			continue
		}
		values[c.Name] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

func convert(c listing.Column, raw any) (any, *FieldError) {
	fail := func(msg string) (any, *FieldError) {
		return nil, &FieldError{Field: c.Name, Message: c.Name + " " + msg}
	}

	if raw == nil {
		if c.Required || c.Type == listing.Bool {
			return fail("must not be null")
		}
		return nil, nil
	}

	switch c.Type {
	case listing.Bool:
		b, ok := raw.(bool)
		if !ok {
			return fail("must be true or false")
		}
		return b, nil
	case listing.Date:
		s, ok := raw.(string)
		if !ok {
			return fail("must be a date string")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if c.Required {
				return fail("is required")
			}
			return nil, nil
		}
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return fail("must be a date in YYYY-MM-DD format")
		}
		return d, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return fail("must be a string")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if c.Required {
				return fail("is required")
			}
			return nil, nil
		}
		if c.Type == listing.Text && len(s) > maxTextLen {
			return fail(fmt.Sprintf("must be at most %d characters", maxTextLen))
		}
		return s, nil
	}
}
