package kb

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the SHA-256 hex digest of cleaned content, the key
// used for cross-source dedup within a group (step 8).
func ContentHash(cleanedContent string) string {
	sum := sha256.Sum256([]byte(cleanedContent))
	return hex.EncodeToString(sum[:])
}
