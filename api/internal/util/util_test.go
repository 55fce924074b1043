package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffMime(t *testing.T) {
	assert.Equal(t, "application/pdf", SniffMime([]byte("%PDF-1.7\n...")))
	assert.Equal(t, "application/pdf", SniffMime([]byte("\n%PDF-1.4")))
	assert.Equal(t, "application/octet-stream", SniffMime(nil))
	assert.Equal(t, "image/png", SniffMime([]byte("\x89PNG\r\n\x1a\n0000")))
	assert.False(t, IsPDF([]byte("PDF-1.7")))
}

func TestHasPDFExt(t *testing.T) {
	assert.True(t, HasPDFExt("lista.pdf"))
	assert.True(t, HasPDFExt("LISTA.PDF "))
	assert.False(t, HasPDFExt("lista.pdf.txt"))
	assert.False(t, HasPDFExt("lista"))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  {\"a\":1}  "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab…", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex())
	assert.Equal(t, SHA256Hex([]byte("ab")), SHA256Hex([]byte("a"), []byte("b")))
	assert.Len(t, ShortHash([]byte("x")), 12)
}
