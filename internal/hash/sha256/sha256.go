// Package sha256 provides SHA-256 hashing for stored page content.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex digest of data. Debug page dumps use it to derive
// collision-free object names.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
