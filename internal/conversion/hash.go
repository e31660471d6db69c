package conversion

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashIdentifier one-way hashes an identity value before it leaves the
// system. Input is trimmed and lowercased first so equivalent values hash
// identically; an empty input yields an empty string, which the payload
// shaper omits entirely.
func HashIdentifier(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
