// Package checksum fingerprints zettel files. The index uses it to skip
// unchanged files and the API uses it as the ETag for optimistic locking.
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

// Matches reports whether want is the checksum of data. Case and surrounding
// quotes are ignored, so a raw If-Match header value can be passed in.
func Matches(data []byte, want string) bool {
	want = strings.ToLower(strings.Trim(strings.TrimSpace(want), `"`))
	return want == Sum(data)
}
