package wrapper

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hash over the concatenated inputs.
// Returns the full 64-character hex string.
func Hash(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
