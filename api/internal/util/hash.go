package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex hashes the concatenation of parts.
func SHA256Hex(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortHash is the first 12 hex chars, for logs.
func ShortHash(b []byte) string {
	return SHA256Hex(b)[:12]
}
