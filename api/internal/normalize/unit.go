package normalize

import (
	"regexp"
	"strings"
)

const blockLabels = `bloco|block|torre|bl|tr`

var (
	leadingBlockLabel = regexp.MustCompile(`(?i)^(?:` + blockLabels + `)\b\.?\s*[:\-]?\s*`)
	// "Bloco 01" or "Bloco X-1" anywhere in a unit text; "tr" is left out, too common inside codes.
	embeddedBlock = regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(?:bloco|block|torre|bl)\b\.?\s*[:\-]?\s*([\pL\pN]+(?:-[\pL\pN]+)*)`)

	leadingUnitLabel = regexp.MustCompile(
		`(?i)^(?:(?:unidade|unid|apartamento|apto|apt|ap|sala|loja|garagem|vaga|casa)\b\.?|n[º°])\s*(?:n[º°]\.?\s*)?[:#\-]?\s*`)
)

const unitSeparators = " -/,.:;#"

// Block canonicalizes a block designator: "Bloco a" -> "A".
func Block(raw string) (string, Confidence) {
	return strings.ToUpper(stripLabel(collapse(raw), leadingBlockLabel)), OK
}

// BlockFromUnit finds a labeled block token inside a unit text:
// "Bloco 01 Unidade 01-01" -> "01". Empty when there is none.
func BlockFromUnit(rawUnit string) string {
	m := embeddedBlock.FindStringSubmatch(collapse(rawUnit))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// UnitDesignator keeps only the unit number/code. A labeled token carrying
// the record's own canonical block is removed, as is a leading unit label:
// ("Bloco 01 Unidade 01-01", "01") -> "01-01".
func UnitDesignator(raw, block string) (string, Confidence) {
	s := collapse(raw)
	if block != "" {
		re := regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(?:` + blockLabels + `)\b\.?\s*[:\-]?\s*` +
			regexp.QuoteMeta(block) + `(?:[^\pL\pN]|$)`)
		s = collapse(re.ReplaceAllString(s, " "))
	}
	for {
		next := stripLabel(strings.Trim(s, unitSeparators), leadingUnitLabel)
		if next == s {
			break
		}
		s = next
	}
	return strings.ToUpper(s), OK
}

// stripLabel removes leading labels as long as something is left behind.
func stripLabel(s string, label *regexp.Regexp) string {
	for {
		loc := label.FindStringIndex(s)
		if loc == nil || loc[1] == len(s) {
			return s
		}
		s = s[loc[1]:]
	}
}
