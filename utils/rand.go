package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomHex returns 2*n lowercase hex characters from n random bytes.
func GenerateRandomHex(n int) string {
	bs := make([]byte, n)
	rand.Read(bs)
	return hex.EncodeToString(bs)
}
