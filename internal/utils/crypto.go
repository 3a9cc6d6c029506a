// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
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

// GeneratePassword returns a random password that satisfies strong_password.
func GeneratePassword() (string, error) {
	body, err := GenerateRandomString(16)
	if err != nil {
		return "", err
	}
	return "Aa1!" + body, nil
}

func FileChecksum(fileData []byte) string {
	hasher := sha256.New()
	hasher.Write(fileData)
	return hex.EncodeToString(hasher.Sum(nil))
}

func ValidateFileHash(fileData []byte, expectedHash string) bool {
	return FileChecksum(fileData) == expectedHash
}
