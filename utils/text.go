package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var nullTokens = map[string]bool{
	"":     true,
	"NULL": true,
	"nan":  true,
	"NaN":  true,
	"NaT":  true,
	"<NA>": true,
	"None": true,
}

var (
	floatIntegerPattern = regexp.MustCompile(`^-?\d+\.0+$`)
	exponentPattern     = regexp.MustCompile(`^-?\d+(\.\d+)?[eE][+-]?\d+$`)
	phoneCharsPattern   = regexp.MustCompile(`^[\d\s+().\-]+$`)
)

// IsNullToken reports whether a raw cell stands for "no value" in the exports we receive.
func IsNullToken(s string) bool {
	return nullTokens[strings.TrimSpace(s)]
}

// PlainNumberText rewrites numeric identifiers that went through a float on the way out of
// the source system ("3001234567.0", "3.001234567E9") as plain digits. Anything else is
// returned trimmed and unchanged.
func PlainNumberText(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case floatIntegerPattern.MatchString(s):
		return s[:strings.IndexByte(s, '.')]
	case exponentPattern.MatchString(s):
		d, err := decimal.NewFromString(s)
		if err != nil {
			return s
		}
		return d.String()
	}
	return s
}

// NormalizePhone strips formatting from a phone number ("+57 (300) 123-4567") leaving its
// digits. Values containing letters are returned as-is so format validation can reject them.
func NormalizePhone(s string) string {
	s = PlainNumberText(s)
	if s == "" || !phoneCharsPattern.MatchString(s) {
		return s
	}
	return libphonenumber.NormalizeDigitsOnly(s)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
