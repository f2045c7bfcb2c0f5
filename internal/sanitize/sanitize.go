// Package sanitize scrubs raw deep-link input before parsing and logging.
// All functions are total: they never fail, they only strip.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	nonID     = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	nonAmount = regexp.MustCompile(`[^0-9.]+`)
)

// ID strips everything outside [a-zA-Z0-9_-] after trimming whitespace.
func ID(s string) string {
	return nonID.ReplaceAllString(strings.TrimSpace(s), "")
}

// Amount strips everything outside digits and the decimal point.
func Amount(s string) string {
	return nonAmount.ReplaceAllString(s, "")
}

// URL trims whitespace and strips characters commonly used for markup or
// quote injection: < > " ' and backtick.
func URL(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', '`':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// Text trims whitespace and strips angle brackets.
func Text(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
