// Package checksum computes content digests used to detect unchanged documents.
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

// ETag returns a strong HTTP entity tag for a digest produced by Sum.
func ETag(sum string) string {
	if len(sum) > 32 {
		sum = sum[:32]
	}
	return `"` + sum + `"`
}

// MatchETag reports whether an If-None-Match header value matches etag.
func MatchETag(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
