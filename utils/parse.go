package utils

import (
	"strconv"
	"strings"
)

// ParseOptionalInt parses a quantity field coming from a form or modal
// input. Blank or unparseable input means "not provided" and returns nil
// rather than zero, since an explicit zero is a meaningful report. Negative
// values are likewise treated as not provided.
func ParseOptionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// ParseOptionalString trims the input and returns nil for blank values.
func ParseOptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
