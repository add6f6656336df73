package utils

import (
	"crypto/rand"
	"math/big"
)

const resetCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRandomToken returns a short code a user can type from an email.
func GenerateRandomToken(length int) (string, error) {
	max := big.NewInt(int64(len(resetCodeCharset)))
	token := make([]byte, length)
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		token[i] = resetCodeCharset[n.Int64()]
	}
	return string(token), nil
}
