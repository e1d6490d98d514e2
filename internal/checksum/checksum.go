// Package checksum computes content digests used for change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Strings digests the given parts separated by a NUL byte, so that
// ("ab", "c") and ("a", "bc") never collide.
func Strings(parts ...string) string {
	return Sum([]byte(strings.Join(parts, "\x00")))
}
