package util

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

var pdfMagic = []byte("%PDF-")

// SniffMime returns the MIME type of the payload. PDF is checked by magic
// bytes first; anything else falls back to http.DetectContentType.
func SniffMime(b []byte) string {
	if IsPDF(b) {
		return "application/pdf"
	}
	if len(b) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(b)
}

// IsPDF reports whether b starts with the PDF header. Leading whitespace is
// tolerated since some generators emit a BOM or newline first.
func IsPDF(b []byte) bool {
	b = bytes.TrimLeft(b, "\xef\xbb\xbf \t\r\n")
	return bytes.HasPrefix(b, pdfMagic)
}

// HasPDFExt checks the file name only, case-insensitive.
func HasPDFExt(name string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), ".pdf")
}
