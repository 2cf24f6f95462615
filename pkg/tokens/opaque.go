package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// RefreshTokenBytes gives 160 bits of entropy.
const RefreshTokenBytes = 20

func NewOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func NewRefreshToken() (string, error) {
	return NewOpaqueToken(RefreshTokenBytes)
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
