package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"storefront/internal/domain"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reCategory = regexp.MustCompile(`^[A-Za-z0-9 _'\-]{1,50}$`)
)

// Required reports whether s is non-empty. Whitespace counts as content.
func Required(s string) bool { return s != "" }

// RequiredMessage renders the inline error for an empty field, e.g.
// "PostalCode is required.".
func RequiredMessage(key string) string {
	r, n := utf8.DecodeRuneInString(key)
	if n == 0 {
		return "Field is required."
	}
	return string(unicode.ToUpper(r)) + key[n:] + " is required."
}

// Fields returns one message per empty field. An empty map means valid.
func Fields(fields []domain.Field) map[string]string {
	errs := map[string]string{}
	for _, f := range fields {
		if !Required(f.Value) {
			errs[f.Key] = RequiredMessage(f.Key)
		}
	}
	return errs
}

// Name trims a display name, which must keep 1 to 60 characters.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 60 {
		return "", false
	}
	return s, true
}

// ID parses a positive integer identifier.
func ID(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Qty parses a cart quantity; anything below one is clamped up.
func Qty(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Password only enforces bcrypt's input window; the accounts are mock.
func Password(s string) bool {
	return len(s) >= 1 && len(s) <= 72
}

// Category accepts "all" or a catalog category name.
func Category(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "all", true
	}
	return s, reCategory.MatchString(s)
}

func Availability(s string) (string, bool) {
	switch s = strings.TrimSpace(s); s {
	case "", "all":
		return "all", true
	case "available", "unavailable":
		return s, true
	}
	return "", false
}

// Decimal parses an optional non-negative number filter.
func Decimal(s string) (float64, bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false, false
	}
	return f, true, true
}

// Page parses a one-based page number, defaulting to 1.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
