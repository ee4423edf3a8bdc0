// Package hashing computes the content-addressed identities used for dedupe:
// a file hash over raw bytes and a content hash over extracted text.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the hex sha256 digest of raw file bytes.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashText returns the hex sha256 digest of UTF-8 encoded text.
// Two documents with identical extracted text always hash identically,
// regardless of filename or file encoding.
func HashText(s string) string {
	return HashBytes([]byte(s))
}
