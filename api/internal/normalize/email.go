package normalize

import "strings"

// Email lowercases and trims the address. Addresses that don't look like
// local@domain.tld are Ambiguous but still returned, never dropped.
func Email(raw string) (string, Confidence) {
	s := strings.ToLower(collapse(raw))
	if s == "" {
		return "", OK
	}
	if !validEmail(s) {
		return s, Ambiguous
	}
	return s, OK
}

func validEmail(s string) bool {
	if strings.Count(s, "@") != 1 || strings.ContainsRune(s, ' ') {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" {
		return false
	}
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && !strings.HasSuffix(domain, ".")
}
