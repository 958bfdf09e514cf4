package utils

import (
	"crypto/rand"
	"encoding/hex"
)

const defaultTokenBytes = 32 // 256 бит

// RandomToken returns nBytes of crypto/rand entropy hex-encoded.
// Used for refresh and password reset tokens.
func RandomToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = defaultTokenBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
