package domain

import (
	"regexp"
	"strings"
)

// CountryCode is the dialing prefix shown next to the phone field.
const CountryCode = "+221"

// Senegal mobile numbers: 9 digits, operator prefix 70, 71, 75, 76, 77 or 78.
var mobilePattern = regexp.MustCompile(`^(70|71|75|76|77|78)[0-9]{7}$`)

// NormalizePhone strips every non-digit character.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhone normalizes raw and checks it against the mobile numbering rule.
func ValidatePhone(raw string) (string, error) {
	phone := NormalizePhone(raw)
	if !mobilePattern.MatchString(phone) {
		return phone, ErrInvalidPhone
	}
	return phone, nil
}

// InternationalPhone returns the number with the country prefix, digits only.
func InternationalPhone(phone string) string {
	return strings.TrimPrefix(CountryCode, "+") + phone
}
