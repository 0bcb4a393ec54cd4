package domain

import "strings"

// KenyaCountryCode is prepended to local subscriber numbers.
const KenyaCountryCode = "254"

// NormalizePhone reduces a phone number to the single stored form.
//
// Non-digits are stripped. A leading 0 followed by nine digits becomes 254 plus
// the nine digits, a bare nine-digit number gets the 254 prefix, and anything
// else (including numbers that already carry a country code) is kept as digits.
// Stores apply this on write so lookups are always exact-match.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10 && digits[0] == '0':
		return KenyaCountryCode + digits[1:]
	case len(digits) == 9:
		return KenyaCountryCode + digits
	default:
		return digits
	}
}
