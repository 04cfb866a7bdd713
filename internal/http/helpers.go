package http

import (
	"strconv"
	"strings"
)

// sanitizeInput removes control characters and trims whitespace.
// HTML escaping happens when rendering.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl removes control characters except tab, newline and carriage
// return. Surrounding whitespace is kept: contributor names are grouped on
// the exact string, so "Alice " and "Alice" are different people.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < 32 && r != 9 && r != 10 && r != 13) || r == 127 {
			return -1
		}
		return r
	}, s)
}

// formatAmount renders an amount with two decimals.
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// safeNext returns next when it is a local admin page, fallback otherwise.
// State-changing routes such as /delete are never replayed after login.
func safeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/admin/") || strings.Contains(next, "\\") || strings.Contains(next, "//") {
		return fallback
	}
	return next
}
