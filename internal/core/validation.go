package core

// validation.go checks one upload row against the schema.
//
// Validation runs on the raw cell strings, before any coercion, so a
// malformed latitude or boolean is reported instead of being silently
// turned into zero. Every field is checked; a row reports all of its
// problems in schema order, at most one message per field.

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex    = regexp.MustCompile(`^\+971-\d{1,2}-\d{3}-\d{4}$`)
	whatsAppRegex = regexp.MustCompile(`^\+971-\d{2}-\d{3}-\d{4}$`)
)

// Record is one parsed row: raw cell text keyed by schema key.
type Record map[string]string

// ValidationResult is the outcome of validating one row.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// RowValidator validates records against a schema.
type RowValidator struct {
	schema Schema
}

// NewRowValidator creates a validator for schema.
func NewRowValidator(schema Schema) *RowValidator {
	return &RowValidator{schema: schema}
}

// Validate checks rec as row number row (1-based) and returns every error.
// Keys not in the schema are ignored. rec is not modified.
func (v *RowValidator) Validate(rec Record, row int) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	for _, spec := range v.schema {
		raw := strings.TrimSpace(rec[spec.Key])

		if raw == "" {
			if spec.Required {
				result.Errors = append(result.Errors, rowMessage(row, "%s is required", spec.Label))
			}
			continue
		}

		if msg := checkValue(spec, raw); msg != "" {
			result.Errors = append(result.Errors, rowMessage(row, "%s %s", spec.Label, msg))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateRecord is a convenience wrapper around NewRowValidator(schema).Validate.
func ValidateRecord(schema Schema, rec Record, row int) ValidationResult {
	return NewRowValidator(schema).Validate(rec, row)
}

// checkValue returns the message suffix for an invalid non-empty value, or "".
func checkValue(spec FieldSpec, raw string) string {
	if len(spec.ValidValues) > 0 && !contains(spec.ValidValues, raw) {
		return "must be one of: " + strings.Join(spec.ValidValues, ", ")
	}

	switch spec.Type {
	case FieldNumber:
		n, ok := ParseNumber(raw)
		if !ok {
			return "must be a number"
		}
		switch spec.Format {
		case FormatLatitude:
			if n < -90 || n > 90 {
				return "must be between -90 and 90"
			}
		case FormatLongitude:
			if n < -180 || n > 180 {
				return "must be between -180 and 180"
			}
		}
		return ""
	case FieldBool:
		if _, ok := ParseBool(raw); !ok {
			return "must be true or false"
		}
		return ""
	}

	switch spec.Format {
	case FormatEmail:
		if !emailRegex.MatchString(raw) {
			return "must be a valid email address"
		}
	case FormatPhone:
		if !phoneRegex.MatchString(raw) {
			return "must be in format +971-X-XXX-XXXX"
		}
	case FormatWhatsApp:
		if !whatsAppRegex.MatchString(raw) {
			return "must be in format +971-XX-XXX-XXXX"
		}
	case FormatURL:
		if !IsValidURL(raw) {
			return "must be a valid URL"
		}
	}
	return ""
}

// IsValidURL reports whether s is an absolute URL with a scheme and host.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// ParseNumber parses a finite decimal number.
func ParseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ParseBool accepts "true" or "false" in any case.
func ParseBool(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	default:
		return false, false
	}
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func rowMessage(row int, format string, args ...any) string {
	return fmt.Sprintf("Row %d: ", row) + fmt.Sprintf(format, args...)
}
