package validation

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"
)

var (
	// einPattern is the canonical employer identification number, NN-NNNNNNN.
	einPattern = regexp.MustCompile(`^\d{2}-\d{7}$`)
	// einLoosePattern is accepted while the applicant is still typing.
	einLoosePattern = regexp.MustCompile(`^\d{2}-?\d{7}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^[\d\s()\-]+$`)
	zipPattern      = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// FieldErrors maps a field path such as "customers[1].email" to a message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// Clear drops the error for field, as happens when the applicant edits it.
func (fe FieldErrors) Clear(field string) {
	delete(fe, field)
}

// Fields returns the failing field paths in sorted order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Merge copies every error from other under prefix.
func (fe FieldErrors) Merge(prefix string, other FieldErrors) {
	for k, v := range other {
		if prefix != "" {
			k = prefix + "." + k
		}
		fe.Add(k, v)
	}
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsValidEIN requires the hyphenated form.
func IsValidEIN(s string) bool {
	return einPattern.MatchString(s)
}

// NormalizeEIN inserts the hyphen into a nine-digit EIN. Any other input is
// returned unchanged.
func NormalizeEIN(s string) string {
	s = strings.TrimSpace(s)
	if einLoosePattern.MatchString(s) && !strings.Contains(s, "-") {
		return s[:2] + "-" + s[2:]
	}
	return s
}

// IsValidEmail accepts local@domain.tld addresses without display names.
func IsValidEmail(s string) bool {
	if !emailPattern.MatchString(s) {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

func IsValidZip(s string) bool {
	return zipPattern.MatchString(s)
}

// OneOf reports whether v is one of allowed.
func OneOf[T comparable](v T, allowed []T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
