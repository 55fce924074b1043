// Package normalize canonicalizes raw unit-ownership rows field by field.
//
// Every canonicalizer is total: it never fails, it returns the best canonical
// form it can produce together with a Confidence. Callers decide what to do
// with Ambiguous values; Record collects them as Ambiguity diagnostics.
package normalize

import (
	"strings"
	"unicode"
)

// Confidence says whether the canonical value matched a recognized shape.
type Confidence int

const (
	OK Confidence = iota
	Ambiguous
)

func (c Confidence) String() string {
	if c == Ambiguous {
		return "ambiguous"
	}
	return "ok"
}

type AmbiguityKind string

const (
	UnrecognizedPhoneLength AmbiguityKind = "unrecognized_phone_length"
	UnrecognizedTaxIDLength AmbiguityKind = "unrecognized_tax_id_length"
	InvalidTaxIDChecksum    AmbiguityKind = "invalid_tax_id_checksum"
	InvalidEmailShape       AmbiguityKind = "invalid_email_shape"
	UnrecognizedUnitType    AmbiguityKind = "unrecognized_unit_type"
)

// Ambiguity is a field that was resolved by a default instead of a recognized shape.
type Ambiguity struct {
	Field string        `json:"field"` // e.g. "owner.mobile_phone"
	Kind  AmbiguityKind `json:"kind"`
	Value string        `json:"value"` // raw input
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// collapse trims and squeezes every whitespace run into a single space.
func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
