package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashIdentifier returns a stable hex digest of a login identifier so
// Redis keys and audit records never carry raw emails or phone numbers.
func HashIdentifier(v string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(v))))
	return hex.EncodeToString(sum[:16])
}
