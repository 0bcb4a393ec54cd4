// Package identifier classifies free text into the identifier shapes the tax
// authority accepts.
package identifier

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindTaxPIN       Kind = "tax_pin"
	KindNationalID   Kind = "national_id"
	KindUnrecognized Kind = "unrecognized"
)

var (
	// One letter, nine digits, one trailing alphanumeric.
	taxPINPattern     = regexp.MustCompile(`[A-Za-z]\d{9}[A-Za-z0-9]`)
	nationalIDPattern = regexp.MustCompile(`\d{7,10}`)
)

// Identifier is the typed result of Extract. Raw is the substring as submitted.
type Identifier struct {
	Kind Kind
	Raw  string
}

// Recognized reports whether any identifier shape matched.
func (i Identifier) Recognized() bool {
	return i.Kind == KindTaxPIN || i.Kind == KindNationalID
}

// Value is the form sent to the authority: tax PINs upper-cased, IDs as digits.
func (i Identifier) Value() string {
	if i.Kind == KindTaxPIN {
		return strings.ToUpper(i.Raw)
	}
	return i.Raw
}

// Extract returns the first tax PIN in text, else the first 7-10 digit run,
// else an Unrecognized identifier.
func Extract(text string) Identifier {
	if m := taxPINPattern.FindString(text); m != "" {
		return Identifier{Kind: KindTaxPIN, Raw: m}
	}
	if m := nationalIDPattern.FindString(text); m != "" {
		return Identifier{Kind: KindNationalID, Raw: m}
	}
	return Identifier{Kind: KindUnrecognized}
}
