package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sha256Hex returns the SHA-256 digest of the input encoded as lowercase hex.
func Sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// KeyOf hashes parts joined by a unit separator so distinct part lists never collide on joining.
func KeyOf(parts ...string) string {
	return Sha256Hex(strings.Join(parts, "\x1f"))
}
