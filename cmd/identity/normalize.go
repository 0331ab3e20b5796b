package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// The normalized form is the unique login identifier; two registrations that
// differ only in case collide at the database constraint.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
