package helpers

import "strconv"

// ParseNonNegativeInt parses a query parameter as a non-negative integer.
// Empty, malformed, or negative values yield fallback.
func ParseNonNegativeInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
