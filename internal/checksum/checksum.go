// Package checksum fingerprints index files and index entries.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starford/newsroll/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Entry fingerprints one index entry by its JSON encoding, so any field
// change yields a different checksum.
func Entry(e models.PageIndexEntry) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("checksum: %s: %w", e.Path, err)
	}
	return Sum(data), nil
}
