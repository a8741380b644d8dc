package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewSalt returns a fresh 16-byte random salt, hex-encoded.
func NewSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashPassword derives the stored credential hash: sha256(password+salt),
// hex-encoded. The scheme predates this codebase; every stored credential
// uses it, so it stays.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword checks a password against a stored hash and salt in
// constant time.
func VerifyPassword(password, hash, salt string) bool {
	return hmac.Equal([]byte(HashPassword(password, salt)), []byte(hash))
}
