package normalize

import "fmt"

const (
	cpfLen  = 11
	cnpjLen = 14
)

// TaxID formats a CPF (11 digits) as XXX.XXX.XXX-XX or a CNPJ (14 digits) as
// XX.XXX.XXX/XXXX-XX. Other lengths are Ambiguous, digits-only.
func TaxID(raw string) (string, Confidence) {
	d := digitsOnly(raw)
	switch len(d) {
	case 0:
		if collapse(raw) == "" {
			return "", OK
		}
		return "", Ambiguous
	case cpfLen:
		return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:]), OK
	case cnpjLen:
		return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:]), OK
	}
	return d, Ambiguous
}

// ValidTaxID checks the CPF/CNPJ verification digits. Formatting characters are ignored.
func ValidTaxID(s string) bool {
	d := digitsOnly(s)
	switch len(d) {
	case cpfLen:
		return validCPF(d)
	case cnpjLen:
		return validCNPJ(d)
	}
	return false
}

func validCPF(d string) bool {
	if repeated(d) {
		return false
	}
	return checkDigit(d[:9], weights(10, 9)) == d[9] &&
		checkDigit(d[:10], weights(11, 10)) == d[10]
}

var (
	cnpjW1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjW2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

func validCNPJ(d string) bool {
	if repeated(d) {
		return false
	}
	return checkDigit(d[:12], cnpjW1) == d[12] &&
		checkDigit(d[:13], cnpjW2) == d[13]
}

// checkDigit is mod 11: remainder below 2 gives 0, otherwise 11 - remainder.
func checkDigit(d string, w []int) byte {
	sum := 0
	for i := range w {
		sum += int(d[i]-'0') * w[i]
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}

// weights returns n descending weights starting at from.
func weights(from, n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = from - i
	}
	return w
}

func repeated(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
