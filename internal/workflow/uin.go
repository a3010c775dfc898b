package workflow

import "fmt"

// FormatUIN builds the public task identifier from a deployment prefix,
// the four-digit year and the per-year sequence number, e.g. AD2026007.
// The sequence is zero-padded to three digits and grows past 999 without
// truncation.
func FormatUIN(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s%04d%03d", prefix, year, seq)
}
