package normalize

import (
	"fmt"
	"strings"
)

// PhoneKind says what the caller knows about the number's type.
type PhoneKind int

const (
	PhoneUnknown PhoneKind = iota
	PhoneMobile
	PhoneLandline
)

// Phone formats a Brazilian number with area code.
//
// 11 digits are always mobile "(DD) DDDDD-DDDD". 10 digits are a landline
// "(DD) DDDD-DDDD" only when kind is PhoneLandline; otherwise the number is
// assumed mobile and a 9 is inserted after the area code. Any other length is
// Ambiguous and comes back digits-only.
func Phone(raw string, kind PhoneKind) (string, Confidence) {
	d := digitsOnly(raw)
	switch {
	case d == "":
		if strings.TrimSpace(raw) == "" {
			return "", OK
		}
		return "", Ambiguous
	case len(d) == 11:
		return formatMobile(d), OK
	case len(d) == 10 && kind == PhoneLandline:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:6], d[6:]), OK
	case len(d) == 10:
		return formatMobile(d[:2] + "9" + d[2:]), OK
	}
	return d, Ambiguous
}

func formatMobile(d string) string {
	return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:7], d[7:])
}
