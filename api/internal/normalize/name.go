package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Name title-cases a personal or company name: "  joão  da silva " -> "João Da Silva".
// Anything other than letters, diacritics, spaces, hyphens and apostrophes is removed.
func Name(raw string) (string, Confidence) {
	s := norm.NFC.String(raw)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.Is(unicode.Mn, r), r == '-', r == '\'':
			return r
		case r == '’', r == '`', r == '´':
			return '\''
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)

	// Caser is stateful; one per call keeps Name safe for concurrent use.
	lower := cases.Lower(language.BrazilianPortuguese)
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		tokens[i] = titleToken(lower.String(tok))
	}
	return strings.Join(tokens, " "), OK
}

func titleToken(tok string) string {
	r, size := utf8.DecodeRuneInString(tok)
	if r == utf8.RuneError {
		return tok
	}
	return string(unicode.ToTitle(r)) + tok[size:]
}
