// Package validation collects field violations for request bodies.
package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Violations maps a field path to a violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLength(field, value string, maxLen int, v Violations) {
	if len([]rune(value)) > maxLen {
		v[field] = "too_long"
	}
}

// RequiredDecimal flags a decimal that was absent from the payload.
func RequiredDecimal(field string, val *decimal.Decimal, v Violations) {
	if val == nil {
		v[field] = "required"
	}
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}
