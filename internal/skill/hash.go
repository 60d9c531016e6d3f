package skill

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the lowercase hex SHA-256 digest of a document.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
