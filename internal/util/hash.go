package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortSHA256 returns the first 12 hex characters of data's sha256, enough
// to tell sources apart in logs.
func ShortSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}
