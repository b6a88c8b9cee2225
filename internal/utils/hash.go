package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// ContentHashHeader carries the hex BLAKE3-256 digest of an upload body.
const ContentHashHeader = "X-Content-BLAKE3"

// ContentHash returns the hex BLAKE3-256 digest a client sends in
// [ContentHashHeader].
func ContentHash(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// HashString computes an HMAC-SHA256 signature over the given string
// using the provided hash key and returns the result as a hex-encoded string.
//
// The catalog stores passwords only in this form.
//
// Example usage:
//
//	hashed := utils.HashString("user-password", "my-secret-key")
func HashString(data string, hashKey string) string {
	return hex.EncodeToString(hashString([]byte(data), hashKey))
}

// EqualHashes compares two hex digests in constant time.
func EqualHashes(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

func hashString(data []byte, hashKey string) []byte {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(data)
	return hasher.Sum(nil)
}
