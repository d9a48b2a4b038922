package utils

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Returns nil on an empty or all whitespace string
func StringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// DateOrNil keeps only the calendar day of s, so "2025-03-01T10:00:00Z" becomes "2025-03-01".
// Empty input gives nil.
func DateOrNil(s string) (*string, error) {
	trimmed := StringOrNil(s)
	if trimmed == nil {
		return nil, nil
	}
	day, _, _ := strings.Cut(*trimmed, "T")
	if _, err := time.Parse(DateLayout, day); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return &day, nil
}
