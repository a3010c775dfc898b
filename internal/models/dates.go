package models

import "time"

// DateLayout is the wire format for business dates. Lexicographic order on
// these strings is date order.
const DateLayout = "2006-01-02"

// Day returns t's calendar date in UTC.
func Day(t time.Time) string { return t.UTC().Format(DateLayout) }

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
