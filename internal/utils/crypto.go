// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

const lowerAlphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSlugToken returns a lowercase alphanumeric token safe to append to a slug.
func GenerateSlugToken(length int) (string, error) {
	return randomFromCharset(lowerAlphanumeric, length)
}

func randomFromCharset(charset string, length int) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}
