package media

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// ID returns the artifact identifier for the file at path: the hex SHA-256
// of its cleaned absolute path with forward slashes. It depends only on the
// path, so identical bytes at two locations get two IDs.
func ID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(filepath.ToSlash(filepath.Clean(abs))))
	return hex.EncodeToString(sum[:])
}

// IsID reports whether s has the shape of an identifier returned by ID.
func IsID(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, r := range s {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			return false
		}
	}
	return true
}
