package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSecureToken returns a hex string built from n random bytes.
func GenerateSecureToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
